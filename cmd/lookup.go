package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/beer-registry/internal/model"
	"github.com/sells-group/beer-registry/internal/resolve"
)

var lookupProducer string

var candidatesCmd = &cobra.Command{
	Use:   "candidates <product-name>",
	Short: "Print the RateBeer search strings tried for a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		printCandidates(os.Stdout, model.Product{ProductName: args[0], ProducerName: lookupProducer})
		return nil
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <product-name>",
	Short: "Match one product on RateBeer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("lookup"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		p := model.Product{ProductName: args[0], ProducerName: lookupProducer}
		p = newResolver(st).Resolve(ctx, p)
		if !p.Enriched() {
			fmt.Fprintln(os.Stderr, "No match found.")
		}
		return writeProduct(os.Stdout, p)
	},
}

func init() {
	for _, c := range []*cobra.Command{candidatesCmd, lookupCmd} {
		c.Flags().StringVar(&lookupProducer, "producer", "", "registered producer name")
		rootCmd.AddCommand(c)
	}
}

func printCandidates(w io.Writer, p model.Product) {
	for i, c := range resolve.Candidates(p) {
		fmt.Fprintf(w, "%d. %s\n", i+1, c)
	}
}

func writeProduct(w io.Writer, p model.Product) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(p)
}
