package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daviddao/loremutt/internal/display"
	"github.com/daviddao/loremutt/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent archive searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := history.Open(history.DefaultPath())
		if err != nil {
			return err
		}
		defer db.Close()

		searches, err := db.Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(searches) == 0 {
			fmt.Println(display.Dim.Render("no searches recorded yet"))
			return nil
		}

		display.Header("Recent searches")
		for _, s := range searches {
			fmt.Printf("  %s %4d msgs  %-48s  %s\n",
				display.ModeBadge(s.Mode),
				s.Messages,
				display.Truncate(s.Query, 48),
				display.Dim.Render(display.TimeAgo(s.CreatedAt)),
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of searches to show")
	rootCmd.AddCommand(historyCmd)
}
