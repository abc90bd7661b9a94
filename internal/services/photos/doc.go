// Package photos drives Apple Photos through osascript.
//
// Every value (album titles, media ids, file paths, epoch seconds) reaches the
// AppleScript through argv; scripts are constant text fed on stdin. Dates are
// converted to epoch seconds inside the script and returned as two integer
// halves so AppleScript never renders them in exponent notation. Records are
// separated with ASCII group/record/unit separators.
//
// Client implements destination.Client and destination.Restarter.
package photos
