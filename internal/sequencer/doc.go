// Package sequencer joins an entry's clips into one continuous track.
//
// The clip order is written to an ffmpeg concat-demuxer manifest, which is
// the only record of track order; ffmpeg reads it verbatim and encodes a
// single intermediate mp3.
package sequencer
