// Command sweep runs one expiration sweep and exits. It suits platforms that
// schedule jobs externally instead of running the in-process cron.
package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/app"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	report, err := app.RunSweep(cfg)
	if err != nil {
		log.Fatalf("sweep: %v", err)
	}
	if err := json.NewEncoder(os.Stdout).Encode(report); err != nil {
		log.Fatalf("report: %v", err)
	}
}
