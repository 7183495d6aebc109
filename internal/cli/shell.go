package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-client/internal/weather"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive lookup session",
	Long: `Start an interactive session. Type a location to look it up.

Commands:
  retry   repeat the last lookup
  clear   drop cached snapshots
  quit    leave the session`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()

		sh := &shell{
			svc:  deps.Service,
			save: deps.Prefs.SaveLastLocation,
			in:   cmd.InOrStdin(),
			out:  cmd.OutOrStdout(),
		}
		if last := deps.Prefs.LastLocation(); last != "" {
			fmt.Fprintf(sh.out, "Last location: %s (press enter to load it)\n", last)
			sh.initial = last
		}
		return sh.run(cmd.Context())
	},
}

type shell struct {
	svc     *weather.Service
	save    func(string)
	in      io.Reader
	out     io.Writer
	initial string
}

func (s *shell) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cancel := s.svc.Subscribe(func(res *weather.ErrorResult) {
		fmt.Fprintf(s.out, "! %s\n", res.Message)
		if res.Retryable {
			fmt.Fprintln(s.out, "  type 'retry' to try again")
		}
	})
	defer cancel()

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "weather> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		var (
			snap weather.WeatherSnapshot
			err  error
		)
		switch line {
		case "quit", "exit":
			return nil
		case "clear":
			s.svc.ClearCache()
			fmt.Fprintln(s.out, "Cache cleared.")
			continue
		case "retry":
			snap, err = s.svc.Retry(ctx)
		case "":
			if s.initial == "" {
				continue
			}
			snap, err = s.svc.Resolve(ctx, s.initial)
		default:
			snap, err = s.svc.Resolve(ctx, line)
		}
		s.initial = ""

		if err != nil {
			// Classified failures were already printed by the subscriber.
			var res *weather.ErrorResult
			if !errors.As(err, &res) {
				printErr(s.out, err)
			}
			continue
		}
		s.save(snap.Location.Name)
		printSnapshot(s.out, snap)
	}
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
