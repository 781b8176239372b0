package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalogued crates",
	Run:   runStatus,
}

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) {
	_, database, lib, err := openLibrary()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer database.Close()

	crates, err := lib.Status()
	if err != nil {
		database.Close()
		log.Fatalf("status failed: %v", err)
	}

	if statusJSON {
		out, _ := json.MarshalIndent(crates, "", "  ")
		fmt.Println(string(out))
		return
	}

	if len(crates) == 0 {
		fmt.Println("no crates catalogued")
		return
	}

	for _, c := range crates {
		state := "fetched"
		if c.ProcessedAt != nil {
			state = "ready"
		}
		fmt.Printf("  %s@%s [%s] %d items, last used %s\n",
			c.Name, c.Version, state, c.Items, c.LastUsedAt.Format("2006-01-02 15:04"))
	}
}
