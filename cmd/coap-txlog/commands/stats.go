package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/coapstack/coap-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Sessions          map[string]int
	Remotes           map[string]*RemoteStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}

	// FinalStates counts transactions by the last state logged for them.
	FinalStates map[string]int

	// Removals counts transactions removed, by reason.
	Removals map[string]int

	// MaxQueueDepth is the deepest endpoint queue seen in any transition.
	MaxQueueDepth int

	transactions map[txKey]*txTrack
}

// RemoteStats holds statistics for a single remote endpoint.
type RemoteStats struct {
	FirstSeen    time.Time
	LastSeen     time.Time
	Events       int
	Transactions int
	Completed    int

	// TotalLatency sums admission-to-removal time of completed transactions.
	TotalLatency time.Duration
}

// AverageLatency returns the mean admission-to-removal time, or zero.
func (r *RemoteStats) AverageLatency() time.Duration {
	if r.Completed == 0 {
		return 0
	}
	return r.TotalLatency / time.Duration(r.Completed)
}

type txKey struct {
	session   string
	remote    string
	messageID uint16
}

type txTrack struct {
	admitted time.Time
	state    string
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Sessions:          make(map[string]int),
		Remotes:           make(map[string]*RemoteStats),
		FinalStates:       make(map[string]int),
		Removals:          make(map[string]int),
		transactions:      make(map[txKey]*txTrack),
	}
}

// CollectStats reads the whole log file at path.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	for _, tx := range stats.transactions {
		stats.FinalStates[tx.state]++
	}
	return stats, nil
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++
	s.Sessions[event.SessionID]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.Error != nil {
		s.Errors++
	}

	if event.RemoteAddr == "" {
		return
	}
	remote, ok := s.Remotes[event.RemoteAddr]
	if !ok {
		remote = &RemoteStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
		s.Remotes[event.RemoteAddr] = remote
	}
	remote.Events++
	if event.Timestamp.After(remote.LastSeen) {
		remote.LastSeen = event.Timestamp
	}

	if event.Transaction != nil {
		s.addTransition(event, remote)
	}
}

func (s *Stats) addTransition(event log.Event, remote *RemoteStats) {
	te := event.Transaction
	if te.QueueDepth > s.MaxQueueDepth {
		s.MaxQueueDepth = te.QueueDepth
	}

	key := txKey{session: event.SessionID, remote: event.RemoteAddr, messageID: te.MessageID}
	tx, ok := s.transactions[key]
	if te.OldState == "" || !ok {
		// Message IDs wrap, so a new admission starts a new transaction.
		tx = &txTrack{admitted: event.Timestamp}
		s.transactions[key] = tx
		remote.Transactions++
	}
	tx.state = te.NewState

	if te.NewState == "REMOVED" {
		remote.Completed++
		remote.TotalLatency += event.Timestamp.Sub(tx.admitted)
		if te.Reason != "" {
			s.Removals[te.Reason]++
		}
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== CoAP Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Sessions:     %d\n", len(stats.Sessions))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerMessage, log.LayerTransaction} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.FinalStates) > 0 {
		fmt.Fprintln(w, "Transactions by Final State:")
		for _, state := range []string{"PENDING", "ACTIVE", "LOCKED", "REMOVED"} {
			if count := stats.FinalStates[state]; count > 0 {
				fmt.Fprintf(w, "  %-14s %d\n", state+":", count)
			}
		}
		fmt.Fprintf(w, "  Max queue depth: %d\n", stats.MaxQueueDepth)
		fmt.Fprintln(w)
	}

	if len(stats.Removals) > 0 {
		fmt.Fprintln(w, "Removals by Reason:")
		for _, reason := range sortedKeys(stats.Removals) {
			fmt.Fprintf(w, "  %-20s %d\n", reason+":", stats.Removals[reason])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Remotes: %d\n", len(stats.Remotes))
	if len(stats.Remotes) > 0 {
		type remoteInfo struct {
			addr  string
			stats *RemoteStats
		}
		remotes := make([]remoteInfo, 0, len(stats.Remotes))
		for addr, rs := range stats.Remotes {
			remotes = append(remotes, remoteInfo{addr, rs})
		}
		sort.Slice(remotes, func(i, j int) bool {
			if !remotes[i].stats.FirstSeen.Equal(remotes[j].stats.FirstSeen) {
				return remotes[i].stats.FirstSeen.Before(remotes[j].stats.FirstSeen)
			}
			return remotes[i].addr < remotes[j].addr
		})

		fmt.Fprintln(w)
		for _, r := range remotes {
			fmt.Fprintf(w, "  [%s] %d events, %d transactions", r.addr, r.stats.Events, r.stats.Transactions)
			if r.stats.Completed > 0 {
				fmt.Fprintf(w, ", avg latency %s", formatDuration(r.stats.AverageLatency()))
			}
			fmt.Fprintln(w)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
