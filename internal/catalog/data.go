// Package catalog provides the sample shoe catalog and an in-memory
// product store over it. The server uses it when Postgres is unavailable,
// and the seeder loads the same data into Postgres.
package catalog

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

// Dataset is a complete set of stores, products, prices and history
type Dataset struct {
	Stores   []models.Store
	Products []models.Product
	Prices   []models.RawPriceRecord
	History  []models.PriceHistorySample
}

// HistoryDays is how many days of history the sample data covers
const HistoryDays = 30

type sampleProduct struct {
	name, brand, model, category, subcategory, color, description, image, keywords string
	minPrice, maxPrice                                                             int
	storeCount                                                                     int
	rating                                                                         float64
}

var sampleStores = []models.Store{
	{ID: 1, Name: "Amazon", BaseURL: "https://www.amazon.in", LogoURL: "https://logo.clearbit.com/amazon.in", IsActive: true},
	{ID: 2, Name: "Flipkart", BaseURL: "https://www.flipkart.com", LogoURL: "https://logo.clearbit.com/flipkart.com", IsActive: true},
	{ID: 3, Name: "Myntra", BaseURL: "https://www.myntra.com", LogoURL: "https://logo.clearbit.com/myntra.com", IsActive: true},
	{ID: 4, Name: "Ajio", BaseURL: "https://www.ajio.com", LogoURL: "https://logo.clearbit.com/ajio.com", IsActive: true},
	{ID: 5, Name: "Nykaa Fashion", BaseURL: "https://www.nykaafashion.com", LogoURL: "https://logo.clearbit.com/nykaafashion.com", IsActive: true},
	{ID: 6, Name: "Snapdeal", BaseURL: "https://www.snapdeal.com", LogoURL: "https://logo.clearbit.com/snapdeal.com", IsActive: false},
}

const activeStoreCount = 5

var sampleProducts = []sampleProduct{
	{"Nike Air Max 270", "Nike", "Air Max 270", "running", "lifestyle", "Black/White", "The Nike Air Max 270 delivers visible cushioning under every step.", "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=400", "nike air max 270 running lifestyle black white", 8999, 12999, 4, 4.5},
	{"Nike Air Force 1", "Nike", "Air Force 1", "casual", "lifestyle", "White", "The legend lives on in the Nike Air Force 1 '07.", "https://images.unsplash.com/photo-1549298916-b41d501d3772?w=400", "nike air force 1 casual lifestyle white classic", 7999, 10999, 5, 4.7},
	{"Nike React Infinity Run", "Nike", "React Infinity Run", "running", "performance", "Blue/Black", "Designed to help reduce injury and keep you on the run.", "https://images.unsplash.com/photo-1606107557195-0e29a4b5b4aa?w=400", "nike react infinity run running performance blue black", 12999, 16999, 3, 4.4},
	{"Nike Dunk Low", "Nike", "Dunk Low", "casual", "streetwear", "White/Black", "Created for the hardwood but taken to the streets.", "https://images.unsplash.com/photo-1595950653106-6c9ebd614d3a?w=400", "nike dunk low casual streetwear white black", 8499, 11999, 4, 4.6},
	{"Adidas Ultraboost 22", "Adidas", "Ultraboost 22", "running", "performance", "Core Black", "Experience epic energy with the new Ultraboost 22.", "https://images.unsplash.com/photo-1608231387042-66d1773070a5?w=400", "adidas ultraboost 22 running performance core black boost", 11999, 16999, 3, 4.3},
	{"Adidas Stan Smith", "Adidas", "Stan Smith", "casual", "lifestyle", "White/Green", "Timeless appeal. Effortless style. Everyday versatility.", "https://images.unsplash.com/photo-1560769629-975ec94e6a86?w=400", "adidas stan smith casual lifestyle white green classic", 6999, 9999, 5, 4.5},
	{"Adidas NMD R1", "Adidas", "NMD R1", "casual", "streetwear", "Triple Black", "Streamlined shoes that merge '80s racing heritage with modern style.", "https://images.unsplash.com/photo-1551107696-a4b0c5a0d9a2?w=400", "adidas nmd r1 casual streetwear triple black boost", 9999, 13999, 4, 4.2},
	{"Adidas Gazelle", "Adidas", "Gazelle", "casual", "retro", "Navy/White", "A low-profile classic. The Gazelle started as a soccer shoe.", "https://images.unsplash.com/photo-1600185365483-26d7a4cc7519?w=400", "adidas gazelle casual retro navy white suede", 5999, 8999, 4, 4.4},
	{"Puma RS-X", "Puma", "RS-X", "casual", "chunky", "White/Multi", "RS-X is back. The future-retro silhouette of this sneaker returns.", "https://images.unsplash.com/photo-1551107696-a4b0c5a0d9a2?w=400", "puma rs-x casual chunky white multi retro", 6499, 8999, 5, 4.1},
	{"Puma Suede Classic", "Puma", "Suede Classic", "casual", "lifestyle", "Red/White", "The Suede has been changing the game ever since 1968.", "https://images.unsplash.com/photo-1600269452121-4f2416e55c28?w=400", "puma suede classic casual lifestyle red white vintage", 4999, 7999, 4, 4.3},
	{"Puma Future Rider", "Puma", "Future Rider", "running", "retro", "Black/Yellow", "Born in 1980, the Fast Rider launched when running moved from the track to the street.", "https://images.unsplash.com/photo-1605348532760-6753d2c43329?w=400", "puma future rider running retro black yellow", 5499, 8499, 3, 4.0},
	{"Converse Chuck Taylor All Star", "Converse", "Chuck Taylor All Star", "casual", "classic", "Black", "The sneaker that started it all. The Chuck Taylor All Star is the definitive sneaker.", "https://images.unsplash.com/photo-1514989940723-e8e51635b782?w=400", "converse chuck taylor all star casual classic black canvas", 3999, 5999, 5, 4.6},
	{"Converse Chuck 70", "Converse", "Chuck 70", "casual", "premium", "White", "The Chuck 70 is built off the original 1970s design.", "https://images.unsplash.com/photo-1603808033192-082d6919d3e1?w=400", "converse chuck 70 casual premium white canvas vintage", 5999, 8999, 4, 4.5},
	{"New Balance 990v5", "New Balance", "990v5", "running", "premium", "Grey", "The 990v5 restores the great performance and iconic style of the 990.", "https://images.unsplash.com/photo-1600185365926-3a2ce3cdb9eb?w=400", "new balance 990v5 running premium grey made usa", 15999, 19999, 3, 4.7},
	{"New Balance 574", "New Balance", "574", "casual", "lifestyle", "Navy/Grey", "The most New Balance shoe ever.", "https://images.unsplash.com/photo-1600185365483-26d7a4cc7519?w=400", "new balance 574 casual lifestyle navy grey retro", 6999, 9999, 4, 4.2},
	{"Vans Old Skool", "Vans", "Old Skool", "casual", "skate", "Black/White", "The Old Skool, the Vans classic skate shoe.", "https://images.unsplash.com/photo-1525966222134-fcfa99b8ae77?w=400", "vans old skool casual skate black white stripe", 4999, 7999, 5, 4.4},
	{"Vans Authentic", "Vans", "Authentic", "casual", "classic", "Red", "The Authentic is the original Vans silhouette.", "https://images.unsplash.com/photo-1560769629-975ec94e6a86?w=400", "vans authentic casual classic red canvas skate", 3999, 6999, 4, 4.3},
	{"Reebok Classic Leather", "Reebok", "Classic Leather", "casual", "retro", "White", "Keep your look legit. The Classic Leather shoes.", "https://images.unsplash.com/photo-1600185365926-3a2ce3cdb9eb?w=400", "reebok classic leather casual retro white vintage", 5499, 8499, 4, 4.1},
	{"Reebok Nano X", "Reebok", "Nano X", "training", "crossfit", "Black/Red", "Celebrate the 10th anniversary of the Nano.", "https://images.unsplash.com/photo-1606107557195-0e29a4b5b4aa?w=400", "reebok nano x training crossfit black red fitness", 9999, 13999, 3, 4.5},
	{"Air Jordan 1 Low", "Jordan", "Air Jordan 1 Low", "casual", "basketball", "Chicago", "Inspired by the original that debuted in 1985.", "https://images.unsplash.com/photo-1595950653106-6c9ebd614d3a?w=400", "air jordan 1 low casual basketball chicago red white black", 9999, 14999, 4, 4.8},
}

var sampleSizes = []string{"6", "7", "8", "9", "10", "11"}

// Sample returns the sample catalog anchored at now. Products are created
// one day apart in id order, and each carries prices from store_count of
// the active stores spread evenly between its min and max price.
func Sample(now time.Time) *Dataset {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	ds := &Dataset{
		Stores: make([]models.Store, len(sampleStores)),
	}
	for i, s := range sampleStores {
		s.CreatedAt = today.AddDate(0, 0, -90)
		ds.Stores[i] = s
	}

	for i, sp := range sampleProducts {
		id := i + 1
		created := today.AddDate(0, 0, -(len(sampleProducts) - i))

		ds.Products = append(ds.Products, models.Product{
			ID:              id,
			Name:            sp.name,
			Brand:           sp.brand,
			Model:           sp.model,
			Category:        sp.category,
			Subcategory:     sp.subcategory,
			Description:     sp.description,
			Color:           sp.color,
			Gender:          "unisex",
			PrimaryImageURL: sp.image,
			SearchKeywords:  sp.keywords,
			Sizes:           sampleSizes,
			Features:        models.Features{"closure": "Lace-up", "sole": "Rubber"},
			IsActive:        true,
			CreatedAt:       created,
			UpdatedAt:       created,
		})

		for k := 0; k < sp.storeCount; k++ {
			store := sampleStores[(i+k)%activeStoreCount]
			amount := spreadPrice(sp.minPrice, sp.maxPrice, k, sp.storeCount)
			ds.Prices = append(ds.Prices, samplePrice(id, store, sp, amount, k, now))

			for d := 0; d < HistoryDays; d++ {
				p := float64(amount) * (1 + 0.04*math.Sin(float64(d+id)/3))
				avg := math.Round(p)
				ds.History = append(ds.History, models.PriceHistorySample{
					ProductID:  id,
					StoreID:    store.ID,
					StoreName:  store.Name,
					RecordedAt: today.AddDate(0, 0, -d),
					AvgPrice:   avg,
					MinPrice:   avg - float64(100*(d%2)),
					MaxPrice:   avg + float64(100*(d%2)),
				})
			}
		}
	}

	// An inactive store still lists the first product; it must never surface.
	inactive := sampleStores[len(sampleStores)-1]
	ds.Prices = append(ds.Prices, samplePrice(1, inactive, sampleProducts[0], 999, 0, now))

	return ds
}

// spreadPrice places store k of n evenly between min and max, keeping the
// retail .99 ending
func spreadPrice(minPrice, maxPrice, k, n int) int {
	if n <= 1 || k == 0 {
		return minPrice
	}
	if k == n-1 {
		return maxPrice
	}
	step := float64(maxPrice-minPrice) / float64(n-1)
	return int(math.Round((float64(minPrice)+step*float64(k))/100))*100 - 1
}

func samplePrice(productID int, store models.Store, sp sampleProduct, amount, k int, now time.Time) models.RawPriceRecord {
	original := formatAmount(store.Name, amount+1000)
	rating := fmt.Sprintf("%.1f", sp.rating)

	availability := string(models.AvailabilityInStock)
	if k == sp.storeCount-1 && productID%3 == 0 {
		availability = string(models.AvailabilityLimitedStock)
	}

	return models.RawPriceRecord{
		ProductID:     productID,
		StoreID:       store.ID,
		StoreName:     store.Name,
		StoreLogoURL:  store.LogoURL,
		Price:         formatAmount(store.Name, amount),
		OriginalPrice: &original,
		Availability:  availability,
		ProductURL:    fmt.Sprintf("%s/%s/p/%d", store.BaseURL, slug(sp.name), productID),
		LastScraped:   now.Add(-time.Duration(k+1) * time.Hour).Truncate(time.Second),
		Rating:        &rating,
		ReviewCount:   50 * (productID + k),
		SizeAvailability: map[string]bool{
			"8": true, "9": true, "10": productID%2 == 0,
		},
	}
}

// formatAmount renders prices the way each store displays them
func formatAmount(store string, amount int) string {
	switch store {
	case "Amazon":
		return fmt.Sprintf("%d.00", amount)
	case "Flipkart":
		return "₹" + groupThousands(amount)
	default:
		return fmt.Sprintf("%d", amount)
	}
}

func groupThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	return groupThousands(n/1000) + "," + s[len(s)-3:]
}

func slug(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "-"))
}
