package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/monsoonlab/india-weather-collector/internal/integration"
	"github.com/monsoonlab/india-weather-collector/internal/repository"
	"github.com/monsoonlab/india-weather-collector/internal/usecases"
	"github.com/robfig/cron/v3"
)

// Default OpenWeatherMap credential; override with OPENWEATHER_API_KEY.
const defaultAPIKey = "c9c53e4ef615028271edf6d041744a9b"

// cities lists the Indian state capitals to collect, in fetch order.
var cities = []usecases.City{
	{Name: "Dehradun", ID: "1273313"},
	{Name: "Delhi", ID: "1273294"},
	{Name: "Mumbai", ID: "1275339"},
	{Name: "Kolkata", ID: "1275004"},
	{Name: "Chennai", ID: "1264527"},
	{Name: "Bengaluru", ID: "1277333"},
	{Name: "Hyderabad", ID: "1269843"},
	{Name: "Ahmedabad", ID: "1279233"},
	{Name: "Pune", ID: "1259229"},
	{Name: "Jaipur", ID: "1269515"},
	{Name: "Lucknow", ID: "1264733"},
	{Name: "Patna", ID: "1260086"},
	{Name: "Bhopal", ID: "1275841"},
	{Name: "Thiruvananthapuram", ID: "1269743"},
	{Name: "Guwahati", ID: "1271476"},
	{Name: "Ranchi", ID: "1258526"},
	{Name: "Shillong", ID: "1256523"},
	{Name: "Aizawl", ID: "1277765"},
	{Name: "Imphal", ID: "1269750"},
	{Name: "Itanagar", ID: "1278341"},
	{Name: "Agartala", ID: "1278314"},
	{Name: "Panaji", ID: "1271157"},
	{Name: "Raipur", ID: "1273066"},
	{Name: "Chandigarh", ID: "1274746"},
	{Name: "Srinagar", ID: "1255634"},
	{Name: "Shimla", ID: "1256237"},
	{Name: "Gangtok", ID: "1254029"},
}

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting India weather collector...")

	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	apiKey := os.Getenv("OPENWEATHER_API_KEY")
	if apiKey == "" {
		apiKey = defaultAPIKey
	}

	client := integration.NewOpenWeatherClient(apiKey, "")
	store := repository.NewCSVForecastRepository(os.Getenv("WEATHER_CSV_PATH"))

	// Optional SQLite archive alongside the CSV
	var archive repository.ForecastRepository
	if dbPath := os.Getenv("WEATHER_ARCHIVE_DB"); dbPath != "" {
		sqliteRepo, err := repository.NewSQLiteForecastRepository(dbPath)
		if err != nil {
			log.Printf("Warning: could not open archive database: %v", err)
		} else {
			defer sqliteRepo.Close()
			archive = sqliteRepo
		}
	}

	useCase := usecases.NewCollectUseCase(client, store, archive, cities)

	// Run once immediately. Every failure below is best effort: the process
	// always exits normally regardless of partial or total failure.
	ctx := context.Background()
	if err := useCase.CollectWeatherData(ctx); err != nil {
		log.Printf("Collection run failed: %v", err)
	}

	schedule := os.Getenv("COLLECT_SCHEDULE")
	if schedule == "" {
		return
	}

	// Scheduled mode: keep the process up and re-run per the cron expression
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := useCase.CollectWeatherData(ctx); err != nil {
			log.Printf("Scheduled collection run failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to set up cron job: %v", err)
	}

	log.Printf("Collector scheduled with %q", schedule)
	c.Start()

	// Keep the program running
	select {}
}
