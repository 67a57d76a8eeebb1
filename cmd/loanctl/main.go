// loanctl computes amortization schedules and summaries offline, without a
// running API server. Terms come from flags or a YAML file.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/greystone/loan-service/internal/amortization"
)

type termsFile struct {
	Principal         decimal.Decimal `yaml:"principal"`
	AnnualRatePercent decimal.Decimal `yaml:"annual_rate_percent"`
	TermMonths        int             `yaml:"term_months"`
}

var (
	inputPath string
	principal string
	rate      string
	term      int
	month     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "loanctl",
		Short:         "Fixed-rate loan amortization calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "YAML file with loan terms")
	rootCmd.PersistentFlags().StringVarP(&principal, "principal", "p", "", "loan principal, e.g. 10000.00")
	rootCmd.PersistentFlags().StringVarP(&rate, "rate", "r", "", "annual interest rate in percent, e.g. 6.5")
	rootCmd.PersistentFlags().IntVarP(&term, "term", "t", 0, "loan term in months")

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the month-by-month amortization schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, err := loadTerms()
			if err != nil {
				return err
			}
			printSchedule(amortization.BuildSchedule(terms))
			return nil
		},
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print cumulative loan state as of the end of a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, err := loadTerms()
			if err != nil {
				return err
			}
			if month < 1 || month > terms.TermMonths {
				return fmt.Errorf("--month must be between 1 and %d", terms.TermMonths)
			}
			schedule := amortization.BuildSchedule(terms)
			printSummary(amortization.Summarize(schedule, terms, month))
			return nil
		},
	}
	summaryCmd.Flags().IntVarP(&month, "month", "m", 0, "month to summarize, 1-based")

	rootCmd.AddCommand(scheduleCmd, summaryCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadTerms() (amortization.Terms, error) {
	var terms amortization.Terms

	if inputPath != "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return terms, fmt.Errorf("failed to read %s: %w", inputPath, err)
		}
		var tf termsFile
		if err := yaml.Unmarshal(data, &tf); err != nil {
			return terms, fmt.Errorf("failed to parse %s: %w", inputPath, err)
		}
		terms = amortization.Terms{
			Principal:         tf.Principal,
			AnnualRatePercent: tf.AnnualRatePercent,
			TermMonths:        tf.TermMonths,
		}
	} else {
		if principal == "" || rate == "" || term == 0 {
			return terms, fmt.Errorf("either --input or all of --principal, --rate and --term are required")
		}
		p, err := decimal.NewFromString(principal)
		if err != nil {
			return terms, fmt.Errorf("invalid --principal %q: %w", principal, err)
		}
		r, err := decimal.NewFromString(rate)
		if err != nil {
			return terms, fmt.Errorf("invalid --rate %q: %w", rate, err)
		}
		terms = amortization.Terms{Principal: p, AnnualRatePercent: r, TermMonths: term}
	}

	if err := terms.Validate(); err != nil {
		return terms, err
	}
	return terms, nil
}

func printSchedule(schedule []amortization.ScheduleEntry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "MONTH\tPAYMENT\tREMAINING\t")
	for _, entry := range schedule {
		fmt.Fprintf(w, "%d\t%s\t%s\t\n",
			entry.Month,
			entry.MonthlyPayment.StringFixed(2),
			entry.RemainingBalance.StringFixed(2))
	}
	w.Flush()
}

func printSummary(s amortization.Summary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Month:\t%d\n", s.Month)
	fmt.Fprintf(w, "Principal balance:\t%s\n", s.PrincipalBalance.StringFixed(2))
	fmt.Fprintf(w, "Total principal paid:\t%s\n", s.TotalPrincipalPaid.StringFixed(2))
	fmt.Fprintf(w, "Total interest paid:\t%s\n", s.TotalInterestPaid.StringFixed(2))
	w.Flush()
}
