// Package language normalizes the language labels caption tracks carry.
//
// Players report track languages inconsistently: BCP 47 tags ("en-US"),
// ISO 639-2 codes ("eng", "fre") or plain English names ("English"). Base
// folds all of these to one base language code so track selection can
// compare them.
package language
