package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"dubber/internal/config"
	"dubber/internal/deps"
	"dubber/internal/process"
	"dubber/internal/progress"
	"dubber/internal/publish"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCredentials reports whether the model credentials are present. It
// does not call the providers.
func CheckCredentials(cfg *config.Config) Result {
	const name = "Model credentials"
	if err := cfg.ValidateRemote(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	detail := "Gemini API key set"
	if cfg.Gemini.UseVertex {
		detail = fmt.Sprintf("Vertex AI project %s", cfg.Gemini.Project)
	}
	if cfg.TTS.Provider == "openai" {
		detail += ", OpenAI key set"
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckStorage verifies that the object store answers for the configured
// bucket. A missing bucket passes because publishing creates it.
func CheckStorage(ctx context.Context, cfg config.Storage) Result {
	const name = "Object storage"
	publisher, err := publish.New(publish.FromConfig(cfg), nil)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := publisher.Check(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	if !exists {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("bucket %s will be created on first publish", cfg.Bucket)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("bucket %s reachable", cfg.Bucket)}
}

// CheckRedis pings the progress fan-out server.
func CheckRedis(ctx context.Context, cfg config.Progress) Result {
	const name = "Redis progress"
	pub, err := progress.NewRedisPublisher(progress.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Channel:  cfg.RedisChannel,
	})
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer pub.Close()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pub.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", cfg.RedisAddr)}
}

// CheckSystemDeps evaluates the external tools needed for the given config.
// The demucs check imports the module through the configured interpreter.
func CheckSystemDeps(ctx context.Context, cfg *config.Config, runner process.Runner) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Media.FFmpegBinary,
			Description: "Required for audio extraction and muxing",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Media.FFprobeBinary,
			Description: "Required for media inspection",
		},
		{
			Name:        "Rubber Band",
			Command:     cfg.Timeline.RubberbandBinary,
			Description: "Compresses clips that overrun their slot",
			Optional:    true,
		},
	}
	results := deps.CheckBinaries(requirements)
	if cfg.Separation.Enabled {
		results = append(results, deps.CheckPythonModule(ctx, runner, deps.Requirement{
			Name:        "Demucs",
			Command:     cfg.Separation.Command,
			Description: "Separates the background stem",
			Optional:    true,
		}, "demucs"))
	}
	return results
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (service unreachable)"
	}
	return err.Error()
}
