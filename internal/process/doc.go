// Package process runs external tools (ffmpeg, ffprobe, demucs, rubberband)
// behind a small Runner interface.
//
// ExecRunner spawns the command, captures stdout and stderr separately,
// records the exit code, and enforces a per-command timeout. Callers inject a
// fake Runner in tests instead of shelling out.
package process
