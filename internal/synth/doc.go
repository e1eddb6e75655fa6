// Package synth renders script segments into audio clips.
//
// Spoken text goes through the edge-tts command line with the configured
// voice, rate, and pitch. Pauses are rendered as silent mp3 clips with
// ffmpeg's anullsrc source so every clip shares one codec and the concat
// demuxer can join them without re-encoding surprises. A Session collects the
// clips for one entry in order and keeps the running duration estimate the
// fade step relies on.
package synth
