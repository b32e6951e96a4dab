// Command generate_demo creates a demo database with sample guides, users
// and progress.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/guidekeeper/internal/database"
	"github.com/mrlokans/guidekeeper/internal/database/categories"
	"github.com/mrlokans/guidekeeper/internal/database/guides"
	"github.com/mrlokans/guidekeeper/internal/database/progress"
	"github.com/mrlokans/guidekeeper/internal/database/users"
	"github.com/mrlokans/guidekeeper/internal/entities"
	"github.com/mrlokans/guidekeeper/internal/images"
)

const defaultDemoDatabasePath = "./demo/demo.db"

type demoStep struct {
	Title   string
	Content string
	Images  int
}

type demoGuide struct {
	Title       string
	Description string
	Category    string
	Minutes     int
	Steps       []demoStep
}

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	log.Info().Str("path", *dbPath).Msg("Generating demo database")

	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatal().Err(err).Msg("Failed to remove existing demo database")
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create database")
	}
	defer db.Close()

	guideRepo := guides.NewRepository(db.DB)
	categoryRepo := categories.NewRepository(db.DB)
	imageStore := images.NewStore(db.DB, images.DefaultMaxBytes)

	var created []entities.Guide
	for _, demo := range demoGuides() {
		guide, err := saveGuide(guideRepo, categoryRepo, imageStore, demo)
		if err != nil {
			log.Error().Err(err).Str("title", demo.Title).Msg("Failed to save guide")
			continue
		}
		created = append(created, *guide)
		log.Info().Str("title", guide.Title).Int("steps", len(guide.Steps)).Msg("Saved guide")
	}

	addUsersWithProgress(db, created)

	log.Info().Msg("Demo database generated successfully!")
}

func saveGuide(guideRepo *guides.Repository, categoryRepo *categories.Repository, imageStore *images.Store, demo demoGuide) (*entities.Guide, error) {
	if _, _, err := categoryRepo.GetOrCreate(demo.Category); err != nil {
		return nil, err
	}

	guide := &entities.Guide{
		Title:            demo.Title,
		Description:      demo.Description,
		Category:         demo.Category,
		EstimatedMinutes: demo.Minutes,
		CreatedBy:        "demo",
	}
	for i, s := range demo.Steps {
		step := entities.Step{Order: i + 1, Title: s.Title, Content: s.Content}
		for n := 0; n < s.Images; n++ {
			id, err := imageStore.Upload(bytes.NewReader(placeholderPNG(i+n)), fmt.Sprintf("step_%d_%d.png", i+1, n+1))
			if err != nil {
				return nil, fmt.Errorf("upload placeholder image: %w", err)
			}
			step.ImageIDs = append(step.ImageIDs, id)
		}
		guide.Steps = append(guide.Steps, step)
	}

	if err := guideRepo.Create(guide); err != nil {
		return nil, err
	}
	return guide, nil
}

func addUsersWithProgress(db *database.Database, created []entities.Guide) {
	userRepo := users.NewRepository(db.DB)
	progressRepo := progress.NewRepository(db.DB)

	demoUsers := []struct{ username, name string }{
		{"alex", "Alex Morgan"},
		{"sam", "Sam Rivera"},
	}

	for ui, u := range demoUsers {
		user, err := userRepo.Create(u.username, u.name)
		if err != nil {
			log.Error().Err(err).Str("user", u.username).Msg("Failed to create user")
			continue
		}

		for gi, guide := range created {
			if (gi+ui)%2 == 1 {
				continue
			}
			p, err := progressRepo.Start(user.ID, guide.ID)
			if err != nil {
				log.Error().Err(err).Msg("Failed to start progress")
				continue
			}
			done := (len(guide.Steps) + ui) / 2
			if err := progressRepo.Advance(p.ID, done+1, done, len(guide.Steps)); err != nil {
				log.Error().Err(err).Msg("Failed to record progress")
			}
		}
	}
}

// placeholderPNG renders a small solid-colour image.
func placeholderPNG(seed int) []byte {
	palette := []color.RGBA{
		{R: 0x3B, G: 0x82, B: 0xF6, A: 0xFF},
		{R: 0x10, G: 0xB9, B: 0x81, A: 0xFF},
		{R: 0xF5, G: 0x9E, B: 0x0B, A: 0xFF},
	}
	img := image.NewRGBA(image.Rect(0, 0, 64, 40))
	fill := palette[seed%len(palette)]
	for y := 0; y < 40; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func demoGuides() []demoGuide {
	return []demoGuide{
		{
			Title:       "Network Setup",
			Description: "Bring a new office router online and hand out addresses.",
			Category:    "Networking",
			Minutes:     45,
			Steps: []demoStep{
				{Title: "Unbox and cable", Content: "Connect the WAN port to the modem and one LAN port to your laptop.", Images: 1},
				{Title: "Open the admin page", Content: "Browse to http://192.168.1.1 and sign in with the label credentials."},
				{Title: "Configure DHCP", Content: "Set the pool to 192.168.1.100-192.168.1.200 and save.", Images: 2},
			},
		},
		{
			Title:       "Printer Driver Install",
			Description: "Install the shared floor printer on a workstation.",
			Category:    "Hardware",
			Minutes:     15,
			Steps: []demoStep{
				{Title: "Download the driver", Content: "Fetch the driver package from the vendor portal."},
				{Title: "Add the printer", Content: "Use the printer's IP address as a TCP/IP port.", Images: 1},
			},
		},
		{
			Title:       "Onboarding Checklist",
			Description: "First-day account setup for new staff.",
			Category:    entities.DefaultCategoryName,
			Minutes:     30,
			Steps: []demoStep{
				{Title: "Create accounts", Content: "Directory, mail and chat accounts."},
				{Title: "Issue hardware", Content: "Record the laptop serial number in the inventory sheet."},
				{Title: "Security briefing", Content: "Walk through the password policy and MFA enrolment.", Images: 1},
				{Title: "Sign-off", Content: "Collect the signed acceptable-use form."},
			},
		},
	}
}
