package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bheruji/learnflow-backend/config"
	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/internal/app/repository"
	"github.com/bheruji/learnflow-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

// Imports the roadmap catalog from an XLSX file. One row per topic:
// roadmap_title | roadmap_description | level | tags | step_title | topic_title | topic_description
// Consecutive rows with the same roadmap and step titles are grouped.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	roadmapRepo := repository.NewRoadmapRepository(db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	roadmaps, err := readRoadmapsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	fmt.Printf("Parsed %d roadmaps\n", len(roadmaps))

	created := 0
	for i := range roadmaps {
		if err := roadmapRepo.CreateWithSteps(&roadmaps[i]); err != nil {
			fmt.Printf("Skipping %q: %v\n", roadmaps[i].Title, err)
			continue
		}
		created++
		fmt.Printf("Created roadmap %q (%d steps)\n", roadmaps[i].Title, len(roadmaps[i].Steps))
	}
	fmt.Printf("Done: %d/%d roadmaps created\n", created, len(roadmaps))
}

func readRoadmapsFromXLSX(filePath string) ([]model.Roadmap, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var roadmaps []model.Roadmap
	skipped := 0

	// First row is the header
	for _, row := range rows[1:] {
		if len(row) < 6 {
			skipped++
			continue
		}
		roadmapTitle := strings.TrimSpace(cell(row, 0))
		stepTitle := strings.TrimSpace(cell(row, 4))
		topicTitle := strings.TrimSpace(cell(row, 5))
		if roadmapTitle == "" || stepTitle == "" || topicTitle == "" {
			skipped++
			continue
		}

		if len(roadmaps) == 0 || roadmaps[len(roadmaps)-1].Title != roadmapTitle {
			var tags []string
			for _, tag := range strings.Split(cell(row, 3), ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					tags = append(tags, tag)
				}
			}
			roadmaps = append(roadmaps, model.Roadmap{
				Title:       roadmapTitle,
				Description: strings.TrimSpace(cell(row, 1)),
				Level:       strings.TrimSpace(cell(row, 2)),
				RoadmapType: model.RoadmapStatic,
				Tags:        tags,
			})
		}
		roadmap := &roadmaps[len(roadmaps)-1]

		if len(roadmap.Steps) == 0 || roadmap.Steps[len(roadmap.Steps)-1].Title != stepTitle {
			roadmap.Steps = append(roadmap.Steps, model.Step{
				Title:     stepTitle,
				StepOrder: len(roadmap.Steps) + 1,
			})
		}
		step := &roadmap.Steps[len(roadmap.Steps)-1]

		step.Topics = append(step.Topics, model.Topic{
			Title:       topicTitle,
			Description: strings.TrimSpace(cell(row, 6)),
			TopicOrder:  len(step.Topics) + 1,
		})
	}

	if skipped > 0 {
		fmt.Printf("Skipped %d incomplete rows\n", skipped)
	}
	return roadmaps, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}
