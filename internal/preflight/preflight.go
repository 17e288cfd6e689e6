package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"slidecast/internal/config"
	"slidecast/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minFreeBytes is the floor for staging disk space; rendering a large deck to
// 150 DPI PNGs plus the intermediate PDF stays well under this.
const minFreeBytes = 512 << 20

// RunAll executes all preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Inbox directory", cfg.Paths.InboxDir),
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDiskSpace("Staging disk space", cfg.Paths.StagingDir),
		CheckGeminiKeys(cfg),
	}
	results = append(results, CheckRenderTools(cfg)...)
	return results
}

// Ready reports whether every check passed.
func Ready(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

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

// CheckDiskSpace verifies the filesystem holding path has room for rendering
// artifacts.
func CheckDiskSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (only %d MiB free)", path, free>>20)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", path, free>>20)}
}

// CheckGeminiKeys verifies that at least one API key is configured. It does
// not call the API; key validity surfaces on the first model call.
func CheckGeminiKeys(cfg *config.Config) Result {
	const name = "Gemini API keys"
	if len(cfg.Gemini.APIKeys) == 0 {
		return Result{Name: name, Detail: "no api keys configured"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d key(s) configured", len(cfg.Gemini.APIKeys))}
}

// RenderToolRequirements lists the external binaries the renderer shells out to.
func RenderToolRequirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{
			Name:        "LibreOffice",
			Command:     cfg.SofficeBinary(),
			Description: "Required for pptx to pdf conversion",
		},
		{
			Name:        "Poppler pdftoppm",
			Command:     cfg.PdftoppmBinary(),
			Description: "Required for pdf to png rasterization",
		},
	}
}

// CheckRenderTools reports availability of the conversion binaries.
func CheckRenderTools(cfg *config.Config) []Result {
	statuses := deps.CheckBinaries(RenderToolRequirements(cfg))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		result := Result{Name: status.Name, Passed: status.Available}
		if status.Available {
			result.Detail = status.Command
		} else {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}
	return results
}
