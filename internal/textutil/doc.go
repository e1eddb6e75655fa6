// Package textutil provides filename helpers for rendered tracks.
//
// Slugify folds accented Latin text (for example tone-marked pinyin such as
// "bòhe") down to a lowercase ASCII token. TrackFileName composes the
// meditation_NN_slug.ext names used in the output directory.
package textutil
