// Package textutil provides filename comparison helpers shared by the manifest
// and destination matchers.
//
// Names are compared after Unicode NFC normalization and case folding, since
// exports and destination libraries disagree on both. The destination's
// auto-dedup suffix ("name(1).ext") can be stripped before comparison.
package textutil
