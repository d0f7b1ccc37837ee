package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/foxxcyber/shoe-compare/internal/catalog"
	"github.com/foxxcyber/shoe-compare/internal/config"
	"github.com/foxxcyber/shoe-compare/internal/database"
	"github.com/foxxcyber/shoe-compare/internal/models"
	"github.com/foxxcyber/shoe-compare/internal/services"
)

// ScrapedPrice is one row of a price import file
type ScrapedPrice struct {
	ProductID     int
	Store         string
	Price         string
	OriginalPrice string
	Availability  string
	ProductURL    string
	Amount        float64
}

func main() {
	// Command line flags
	dryRun := flag.Bool("dry-run", false, "Preview changes without writing to database")
	skipSample := flag.Bool("skip-sample", false, "Do not load the sample catalog")
	priceFile := flag.String("file", "", "CSV of scraped prices to import (product_id,store,price,original_price,availability,product_url)")
	flag.Parse()

	// Load .env
	godotenv.Load()

	cfg := config.Load()
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	data := catalog.Sample(time.Now())

	var scraped []ScrapedPrice
	if *priceFile != "" {
		file, err := os.Open(*priceFile)
		if err != nil {
			log.WithError(err).Fatal("Failed to open price file")
		}
		defer file.Close()

		scraped, err = parsePriceFile(file, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to parse price file")
		}
		log.Infof("Found %d scraped prices to import", len(scraped))
	}

	if *dryRun {
		log.Info("DRY RUN - No changes will be made")
		if !*skipSample {
			printPreview(data, 10)
		}
		printScraped(scraped, 10)
		return
	}

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	ctx := context.Background()

	if !*skipSample {
		result, err := db.SeedCatalog(ctx, database.SeedData{
			Stores:   data.Stores,
			Products: data.Products,
			Prices:   data.Prices,
			History:  data.History,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to seed catalog")
		}
		log.Infof("Seed complete: %d stores, %d products, %d prices, %d history rows",
			result.Stores, result.Products, result.Prices, result.History)
	}

	if len(scraped) > 0 {
		imported, skipped, err := importPrices(ctx, db, scraped, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to import prices")
		}
		log.Infof("Import complete: %d prices recorded, %d skipped", imported, skipped)
	}
}

// parsePriceFile reads a scraped price CSV. Rows whose price cannot be
// parsed are skipped with a warning.
func parsePriceFile(reader io.Reader, log logrus.FieldLogger) ([]ScrapedPrice, error) {
	csvReader := csv.NewReader(bufio.NewReader(reader))

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range []string{"product_id", "store", "price"} {
		if _, ok := colMap[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	get := func(record []string, col string) string {
		if idx, ok := colMap[col]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	var prices []ScrapedPrice
	line := 1
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		productID, err := strconv.Atoi(get(record, "product_id"))
		if err != nil || productID < 1 {
			log.WithField("line", line).Warn("Skipping row with invalid product_id")
			continue
		}

		amount, err := services.ParseAmount(get(record, "price"))
		if err != nil {
			log.WithField("line", line).WithError(err).Warn("Skipping row with invalid price")
			continue
		}

		prices = append(prices, ScrapedPrice{
			ProductID:     productID,
			Store:         get(record, "store"),
			Price:         get(record, "price"),
			OriginalPrice: get(record, "original_price"),
			Availability:  string(models.ParseAvailability(get(record, "availability"))),
			ProductURL:    get(record, "product_url"),
			Amount:        amount.InexactFloat64(),
		})
	}

	return prices, nil
}

// importPrices records each scraped price against its store
func importPrices(ctx context.Context, db *database.DB, prices []ScrapedPrice, log logrus.FieldLogger) (imported, skipped int, err error) {
	storeIDs, err := db.StoreIDsByName(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load stores: %w", err)
	}

	now := time.Now().UTC()
	for _, p := range prices {
		storeID, ok := storeIDs[strings.ToLower(p.Store)]
		if !ok {
			log.WithField("store", p.Store).Warn("Skipping price for unknown store")
			skipped++
			continue
		}

		raw := models.RawPriceRecord{
			ProductID:    p.ProductID,
			StoreID:      storeID,
			Price:        p.Price,
			Availability: p.Availability,
			ProductURL:   p.ProductURL,
			LastScraped:  now,
		}
		if p.OriginalPrice != "" {
			original := p.OriginalPrice
			raw.OriginalPrice = &original
		}

		if err := db.RecordPrice(ctx, raw, p.Amount); err != nil {
			return imported, skipped, fmt.Errorf("product %d at %s: %w", p.ProductID, p.Store, err)
		}
		imported++
	}

	return imported, skipped, nil
}

// printPreview shows a sample of the catalog to be seeded
func printPreview(data *catalog.Dataset, limit int) {
	fmt.Println("\n=== Preview of catalog to seed ===")
	fmt.Printf("Stores: %d, Products: %d, Prices: %d, History rows: %d\n\n",
		len(data.Stores), len(data.Products), len(data.Prices), len(data.History))

	brandCount := make(map[string]int)
	for _, p := range data.Products {
		brandCount[p.Brand]++
	}

	fmt.Println("Products per brand:")
	brands := make([]string, 0, len(brandCount))
	for b := range brandCount {
		brands = append(brands, b)
	}
	sort.Strings(brands)
	for _, b := range brands {
		fmt.Printf("  %s: %d products\n", b, brandCount[b])
	}

	fmt.Printf("\nSample products (first %d):\n", limit)
	for i, p := range data.Products {
		if i >= limit {
			break
		}
		fmt.Printf("  #%d %s (%s/%s)\n", p.ID, p.Name, p.Category, p.Subcategory)
	}
}

func printScraped(prices []ScrapedPrice, limit int) {
	if len(prices) == 0 {
		return
	}
	fmt.Printf("\nScraped prices (first %d of %d):\n", min(limit, len(prices)), len(prices))
	for i, p := range prices {
		if i >= limit {
			break
		}
		fmt.Printf("  product %d @ %s: %s (%.2f, %s)\n", p.ProductID, p.Store, p.Price, p.Amount, p.Availability)
	}
}
