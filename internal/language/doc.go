// Package language normalizes the language tags exchanged with the video
// indexing service.
//
// The service accepts either "auto" or a BCP 47 tag such as "en-US" on
// upload and reports the detected source language per video. Tags are parsed
// with golang.org/x/text/language so ISO 639-2 codes and English names from
// configuration map onto the same canonical form.
package language
