package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/NeverVane/histskim/internal/storage"
)

// CommandStats represents statistics for a base command
type CommandStats struct {
	Command        string        `json:"command"`
	Count          int           `json:"count"`
	SuccessfulRuns int           `json:"successful_runs"`
	FailedRuns     int           `json:"failed_runs"`
	SuccessRate    float64       `json:"success_rate"`
	AvgDuration    time.Duration `json:"avg_duration"`
	LastUsed       time.Time     `json:"last_used"`

	timed         int
	totalDuration time.Duration
}

// DirectoryStats represents statistics for commands run in one directory
type DirectoryStats struct {
	Directory      string    `json:"directory"`
	Count          int       `json:"count"`
	UniqueCommands int       `json:"unique_commands"`
	LastUsed       time.Time `json:"last_used"`

	commands map[string]struct{}
}

// OverallStats summarizes all analyzed records
type OverallStats struct {
	TotalCommands  int     `json:"total_commands"`
	UniqueCommands int     `json:"unique_commands"`
	SuccessRate    float64 `json:"success_rate"`
	KnownExits     int     `json:"known_exits"`
}

// Options controls the analysis
type Options struct {
	// Number of entries kept in each top list, 0 keeps all
	TopN int

	// Entries seen fewer times are left out of the top lists
	MinOccurrences int
}

// DefaultOptions returns the options used by the info command
func DefaultOptions() Options {
	return Options{TopN: 10, MinOccurrences: 1}
}

// Result contains the generated statistics
type Result struct {
	Overall        OverallStats      `json:"overall"`
	TopCommands    []*CommandStats   `json:"top_commands"`
	TopDirectories []*DirectoryStats `json:"top_directories"`
}

// Analyze computes usage statistics over records. Success rates only
// count records with a known exit status.
func Analyze(records []storage.HistoryRecord, opts Options) *Result {
	commandMap := make(map[string]*CommandStats)
	directoryMap := make(map[string]*DirectoryStats)
	result := &Result{}

	succeeded := 0
	for i := range records {
		rec := &records[i]
		cmd := BaseCommand(rec.CommandLine)
		if cmd == "" {
			continue
		}
		result.Overall.TotalCommands++

		timestamp, _ := rec.StartTime()
		updateCommandStats(commandMap, cmd, rec, timestamp)
		if rec.Cwd != "" {
			updateDirectoryStats(directoryMap, cmd, rec, timestamp)
		}

		if rec.ExitStatus != nil {
			result.Overall.KnownExits++
			if *rec.ExitStatus == 0 {
				succeeded++
			}
		}
	}

	result.Overall.UniqueCommands = len(commandMap)
	if result.Overall.KnownExits > 0 {
		result.Overall.SuccessRate = float64(succeeded) / float64(result.Overall.KnownExits) * 100.0
	}

	result.TopCommands = sortCommandStats(commandMap, opts)
	result.TopDirectories = sortDirectoryStats(directoryMap, opts)
	return result
}

// BaseCommand extracts the program name from a full command line
func BaseCommand(command string) string {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return ""
	}

	baseCmd := parts[0]
	if baseCmd == "sudo" && len(parts) > 1 {
		baseCmd = parts[1]
	}

	// Remove path components for commands with full paths
	if i := strings.LastIndex(baseCmd, "/"); i >= 0 && i < len(baseCmd)-1 {
		baseCmd = baseCmd[i+1:]
	}
	return baseCmd
}

func updateCommandStats(commandMap map[string]*CommandStats, cmd string, rec *storage.HistoryRecord, timestamp time.Time) {
	stats, exists := commandMap[cmd]
	if !exists {
		stats = &CommandStats{Command: cmd}
		commandMap[cmd] = stats
	}

	stats.Count++
	if timestamp.After(stats.LastUsed) {
		stats.LastUsed = timestamp
	}

	if d, ok := rec.Duration(); ok {
		stats.timed++
		stats.totalDuration += d
		stats.AvgDuration = stats.totalDuration / time.Duration(stats.timed)
	}

	if rec.ExitStatus != nil {
		if *rec.ExitStatus == 0 {
			stats.SuccessfulRuns++
		} else {
			stats.FailedRuns++
		}
		stats.SuccessRate = float64(stats.SuccessfulRuns) / float64(stats.SuccessfulRuns+stats.FailedRuns) * 100.0
	}
}

func updateDirectoryStats(directoryMap map[string]*DirectoryStats, cmd string, rec *storage.HistoryRecord, timestamp time.Time) {
	stats, exists := directoryMap[rec.Cwd]
	if !exists {
		stats = &DirectoryStats{Directory: rec.Cwd, commands: make(map[string]struct{})}
		directoryMap[rec.Cwd] = stats
	}

	stats.Count++
	stats.commands[cmd] = struct{}{}
	stats.UniqueCommands = len(stats.commands)
	if timestamp.After(stats.LastUsed) {
		stats.LastUsed = timestamp
	}
}

// Ties are broken by name so output is stable across runs.
func sortCommandStats(commandMap map[string]*CommandStats, opts Options) []*CommandStats {
	stats := make([]*CommandStats, 0, len(commandMap))
	for _, stat := range commandMap {
		if stat.Count >= opts.MinOccurrences {
			stats = append(stats, stat)
		}
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Command < stats[j].Command
	})

	if opts.TopN > 0 && len(stats) > opts.TopN {
		stats = stats[:opts.TopN]
	}
	return stats
}

func sortDirectoryStats(directoryMap map[string]*DirectoryStats, opts Options) []*DirectoryStats {
	stats := make([]*DirectoryStats, 0, len(directoryMap))
	for _, stat := range directoryMap {
		if stat.Count >= opts.MinOccurrences {
			stats = append(stats, stat)
		}
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Directory < stats[j].Directory
	})

	if opts.TopN > 0 && len(stats) > opts.TopN {
		stats = stats[:opts.TopN]
	}
	return stats
}
