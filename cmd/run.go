package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pcrawley/contact-harvester/internal/contact"
	"github.com/pcrawley/contact-harvester/internal/progress"
	"github.com/pcrawley/contact-harvester/internal/progress/sinks"
)

func newRunCmd() *cobra.Command {
	var inputFile string
	var outputFile string

	cmd := &cobra.Command{
		Use:   "run [company ...]",
		Short: "Processes a batch of companies and prints the records as JSON",
		Long: `Runs one extraction job to completion in the foreground. Companies
come from positional arguments and/or an input file with one company name
or URL per line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, inputFile, outputFile)
		},
	}
	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "file with one company per line")
	cmd.Flags().StringVarP(&outputFile, "out", "o", "", "write records to this file instead of stdout")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string, inputFile, outputFile string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	inputs, err := collectInputs(args, inputFile)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errors.New("no companies given; pass arguments or --file")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanupStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanupStore()

	hub := progress.NewHub(progress.Config{Logger: logger}, sinks.NewLogSink(logger))
	svc, err := buildServices(ctx, cfg, store, hub, logger)
	if err != nil {
		return err
	}
	svc.hub = hub

	jobID, err := svc.orch.Submit(ctx, inputs)
	if err != nil {
		return fmt.Errorf("submit job: %w", err)
	}
	logger.Info("job submitted",
		zap.String("job_id", jobID.String()),
		zap.Int("companies", len(inputs)))

	// Blocks until the job drains; Ctrl-C cancels cooperatively.
	done := make(chan struct{})
	go func() {
		_ = svc.orch.Shutdown(cmd.Context())
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		svc.orch.Cancel(jobID)
		<-done
	}
	svc.close(cmd.Context(), logger)

	records, err := store.ListRecords(cmd.Context(), jobID)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	return writeRecords(records, outputFile)
}

func collectInputs(args []string, inputFile string) ([]contact.CompanyInput, error) {
	var inputs []contact.CompanyInput
	add := func(text string) {
		text = strings.TrimSpace(text)
		if text != "" {
			inputs = append(inputs, contact.CompanyInput{OriginalText: text})
		}
	}
	for _, arg := range args {
		add(arg)
	}
	if inputFile != "" {
		f, err := os.Open(inputFile)
		if err != nil {
			return nil, fmt.Errorf("open input file: %w", err)
		}
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			add(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read input file: %w", err)
		}
	}
	return inputs, nil
}

func writeRecords(records []*contact.ContactRecord, outputFile string) error {
	out := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}
