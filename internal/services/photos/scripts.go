package photos

// prelude holds handlers shared by every script.
const prelude = `
property GS : character id 29
property RS : character id 30
property US : character id 31

on epochBase()
	set e to current date
	set day of e to 1
	set year of e to 1970
	set month of e to January
	set time of e to 0
	return e
end epochBase

on epochOf(d)
	set n to (d - my epochBase()) - (time to GMT)
	return ((n div 100000) as integer as text) & US & ((n mod 100000) as integer as text)
end epochOf

on dateOf(secs)
	return (my epochBase()) + (secs as real) + (time to GMT)
end dateOf

on describe(img)
	tell application "Photos"
		return (id of img) & US & (filename of img) & US & ((size of img) as text) & US & my epochOf(date of img)
	end tell
end describe

on albumNamed(n)
	tell application "Photos"
		if (exists album named n) then
			return album named n
		end if
		return make new album named n
	end tell
end albumNamed
`

// searchScript takes argv triples (kind, a, b): ("name", filename, "") or
// ("time", fromEpoch, toEpoch).
const searchScript = prelude + `
on run argv
	set out to ""
	set i to 1
	repeat while i <= (count of argv)
		set queryKind to item i of argv
		set a to item (i + 1) of argv
		set b to item (i + 2) of argv
		tell application "Photos"
			if queryKind is "name" then
				set found to search for a
			else
				set fromDate to my dateOf(a)
				set toDate to my dateOf(b)
				set found to every media item whose date ≥ fromDate and date ≤ toDate
			end if
		end tell
		repeat with img in found
			set out to out & my describe(img) & RS
		end repeat
		set out to out & GS
		set i to i + 3
	end repeat
	return out
end run
`

const getInfoScript = prelude + `
on run argv
	set out to ""
	repeat with i in argv
		tell application "Photos"
			set img to media item id (i as text)
		end tell
		set out to out & my describe(img) & RS
	end repeat
	return out
end run
`

const listAlbumsScript = prelude + `
on run argv
	set out to ""
	tell application "Photos"
		repeat with a in albums
			set out to out & (name of a) & US & (id of a) & RS
		end repeat
	end tell
	return out
end run
`

const createOrGetAlbumScript = prelude + `
on run argv
	tell application "Photos"
		return id of (my albumNamed(item 1 of argv))
	end tell
end run
`

const albumCountScript = prelude + `
on run argv
	tell application "Photos"
		set albumID to item 1 of argv
		if (exists album id albumID) then
			return (count of media items of (album id albumID)) as text
		end if
		return "NOT FOUND"
	end tell
end run
`

const addToAlbumScript = prelude + `
on run argv
	tell application "Photos"
		set a to my albumNamed(item 1 of argv)
		set picked to {}
		repeat with i from 2 to (count of argv)
			set end of picked to media item id (item i of argv)
		end repeat
		set startCount to count of media items of a
		add picked to a
		return ((count of media items of a) - startCount) as text
	end tell
end run
`

const importScript = prelude + `
on run argv
	tell application "Photos"
		set a to my albumNamed(item 1 of argv)
		set picked to {}
		repeat with i from 2 to (count of argv)
			set end of picked to (POSIX file (item i of argv))
		end repeat
		set imported to import picked into a without skip check duplicates
		set out to (id of a) & GS
		repeat with m in imported
			set out to out & (id of m) & RS
		end repeat
		return out
	end tell
end run
`

const spotlightScript = `
on run argv
	tell application "Photos"
		set img to media item id (item 1 of argv)
		spotlight img
		activate
	end tell
end run
`

const propertiesScript = `
on run argv
	tell application "Photos"
		return properties of (media item id (item 1 of argv))
	end tell
end run
`

const restartScript = `
on run argv
	tell application "Photos"
		quit
	end tell
	delay 5
	tell application "Photos"
		activate
	end tell
end run
`
