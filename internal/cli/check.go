package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/lazygate/internal/core/domain"
	"github.com/vietddude/lazygate/internal/gateway"
	"github.com/vietddude/lazygate/internal/infra/database"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Connect to the database once and show how a failure would be answered",
	Run:   runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	connector, err := database.New(cfg.Database)
	if err != nil {
		slog.Error("Failed to init database connector", "error", err)
		os.Exit(1)
	}

	if err := checkConnection(context.Background(), connector, cfg.IsProduction(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "\ncause: %v\n", err)
		os.Exit(1)
	}
}

// checkConnection connects once, writes the report to out and closes the
// connector. It returns the connect error, if any.
func checkConnection(ctx context.Context, connector database.Connector, production bool, out io.Writer) error {
	start := time.Now()
	connectErr := connector.Connect(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)
	defer func() {
		_ = connector.Close(ctx)
	}()

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "DRIVER\tRESULT\tCATEGORY\tSTATUS\tRESPONSE\tELAPSED")

	if connectErr == nil {
		_, _ = fmt.Fprintf(w, "%s\tconnected\t-\t200\t-\t%s\n", connector.Driver(), elapsed)
		return w.Flush()
	}

	category := domain.FailureCategoryOther
	if de, ok := domain.AsDriverError(connectErr); ok {
		category = de.Category
	}
	ce := gateway.NewFailureClassifier(production, slog.Default()).
		WithTagger(database.Detect).
		Classify(connectErr)
	_, _ = fmt.Fprintf(w, "%s\tfailed\t%s\t%d\t%s\t%s\n",
		connector.Driver(), category, ce.StatusCode, ce.Message, elapsed)
	_ = w.Flush()

	return connectErr
}
