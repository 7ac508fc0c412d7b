package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/app"
	"github.com/sweetpotato0/agri-advisor/runner"
)

var (
	batchJSON        bool
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Answer one question per line from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		questions, err := readQuestions(in)
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return fmt.Errorf("no questions to answer")
		}

		a, err := newApp(cmd.Context(), app.Options{LogWriter: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		defer a.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Server.MaxConcurrency
		}
		pool := runner.NewPool(a.Service, concurrency)
		p := &resultPrinter{w: cmd.OutOrStdout(), json: batchJSON}
		return pool.Stream(cmd.Context(), runner.NewTasks(language, questions...), p.print)
	},
}

func init() {
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print results as JSON lines")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "questions answered at once (default from config)")
}

// readQuestions returns the non-blank lines of r. Lines starting with # are
// skipped.
func readQuestions(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// resultPrinter writes results as they arrive, as text blocks or JSON lines.
type resultPrinter struct {
	w    io.Writer
	json bool
	n    int
}

func (p *resultPrinter) print(res *runner.Result) error {
	defer func() { p.n++ }()
	if p.json {
		return json.NewEncoder(p.w).Encode(res)
	}
	if p.n > 0 {
		fmt.Fprintln(p.w, strings.Repeat("-", 40))
	}
	fmt.Fprintf(p.w, "Q: %s\n", res.Query)
	switch {
	case res.Error != nil:
		_, err := fmt.Fprintf(p.w, "error: %v\n", res.Error)
		return err
	case res.Response != nil:
		_, err := fmt.Fprintln(p.w, answer.Render(*res.Response))
		return err
	}
	return nil
}
