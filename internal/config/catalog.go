// Package config loads the marketplace catalog and seed data from YAML.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Seed is the validated content of a catalog file
type Seed struct {
	Locations []domain.Location
	Products  []*domain.Product
	Fees      []domain.FeeRule
	Users     []*domain.User
	Orders    []*domain.Order
	Articles  []*domain.Article
}

type catalogFile struct {
	Locations []locationEntry `yaml:"locations"`
	Products  []productEntry  `yaml:"products"`
	Fees      []feeEntry      `yaml:"fees"`
	Users     []userEntry     `yaml:"users"`
	Orders    []orderEntry    `yaml:"orders"`
	Articles  []articleEntry  `yaml:"articles"`
}

type locationEntry struct {
	ID              string          `yaml:"id"`
	Name            string          `yaml:"name"`
	AdditionalPrice decimal.Decimal `yaml:"additionalPrice"`
}

type variantEntry struct {
	Weight decimal.Decimal `yaml:"weight"`
	Price  decimal.Decimal `yaml:"price"`
}

type productEntry struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	AnimalType  string          `yaml:"animalType"`
	ServiceType string          `yaml:"serviceType"`
	BasePrice   decimal.Decimal `yaml:"basePrice"`
	Variants    []variantEntry  `yaml:"variants"`
}

type feeEntry struct {
	ID    string          `yaml:"id"`
	Label string          `yaml:"label"`
	Kind  string          `yaml:"kind"`
	Value decimal.Decimal `yaml:"value"`
}

type userEntry struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Email     string    `yaml:"email"`
	Role      string    `yaml:"role"`
	Avatar    string    `yaml:"avatar"`
	Inactive  bool      `yaml:"inactive"`
	CreatedAt time.Time `yaml:"createdAt"`
}

type appliedFeeEntry struct {
	Label  string          `yaml:"label"`
	Amount decimal.Decimal `yaml:"amount"`
}

type documentationEntry struct {
	Photos         []string `yaml:"photos"`
	Video          string   `yaml:"video"`
	YouTubeURL     string   `yaml:"youtubeUrl"`
	EarTag         string   `yaml:"earTag"`
	CertificateURL string   `yaml:"certificateUrl"`
}

type orderEntry struct {
	ID            string              `yaml:"id"`
	CustomerName  string              `yaml:"customerName"`
	Email         string              `yaml:"email"`
	ServiceType   string              `yaml:"serviceType"`
	ProductID     string              `yaml:"productId"`
	AnimalType    string              `yaml:"animalType"`
	Weight        decimal.Decimal     `yaml:"weight"`
	LocationID    string              `yaml:"locationId"`
	Location      string              `yaml:"location"`
	BasePrice     decimal.Decimal     `yaml:"basePrice"`
	TotalPrice    decimal.Decimal     `yaml:"totalPrice"`
	Beneficiaries []string            `yaml:"beneficiaries"`
	AppliedFees   []appliedFeeEntry   `yaml:"appliedFees"`
	Status        string              `yaml:"status"`
	CreatedAt     time.Time           `yaml:"createdAt"`
	Documentation *documentationEntry `yaml:"documentation"`
}

type articleEntry struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Content   string    `yaml:"content"`
	Author    string    `yaml:"author"`
	Image     string    `yaml:"image"`
	Category  string    `yaml:"category"`
	Status    string    `yaml:"status"`
	CreatedAt time.Time `yaml:"createdAt"`
}

// Default returns the embedded catalog
func Default() (*Seed, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file. An empty path selects the embedded catalog.
func Load(path string) (*Seed, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML
func Parse(data []byte) (*Seed, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	seed := &Seed{}
	if err := file.decodeLocations(seed); err != nil {
		return nil, err
	}
	if err := file.decodeProducts(seed); err != nil {
		return nil, err
	}
	if err := file.decodeFees(seed); err != nil {
		return nil, err
	}
	if err := file.decodeUsers(seed); err != nil {
		return nil, err
	}
	if err := file.decodeOrders(seed); err != nil {
		return nil, err
	}
	if err := file.decodeArticles(seed); err != nil {
		return nil, err
	}
	return seed, nil
}

// Catalog returns the product and location snapshot described by the seed
func (s *Seed) Catalog() *domain.Catalog {
	return &domain.Catalog{
		Products:  append([]*domain.Product(nil), s.Products...),
		Locations: append([]domain.Location(nil), s.Locations...),
	}
}

func (f *catalogFile) decodeLocations(seed *Seed) error {
	if len(f.Locations) == 0 {
		return fmt.Errorf("catalog: at least one location is required")
	}

	seen := make(map[string]bool)
	for i, l := range f.Locations {
		if l.ID == "" {
			return fmt.Errorf("catalog: location %d has no id", i)
		}
		if seen[l.ID] {
			return fmt.Errorf("catalog: duplicate location id %q", l.ID)
		}
		if l.AdditionalPrice.IsNegative() {
			return fmt.Errorf("catalog: location %q: %w", l.ID, domain.ErrInvalidAmount)
		}
		seen[l.ID] = true
		seed.Locations = append(seed.Locations, domain.Location{
			LocationID:      l.ID,
			Name:            l.Name,
			AdditionalPrice: l.AdditionalPrice,
		})
	}
	return nil
}

func (f *catalogFile) decodeProducts(seed *Seed) error {
	seen := make(map[string]bool)
	for i, p := range f.Products {
		if seen[p.ID] {
			return fmt.Errorf("catalog: duplicate product id %q", p.ID)
		}
		seen[p.ID] = true

		variants := make([]domain.WeightVariant, 0, len(p.Variants))
		for _, v := range p.Variants {
			variants = append(variants, domain.WeightVariant{Weight: v.Weight, Price: v.Price})
		}

		product := &domain.Product{
			ProductID:   p.ID,
			Name:        p.Name,
			AnimalType:  domain.AnimalType(p.AnimalType),
			ServiceType: domain.ServiceType(p.ServiceType),
			BasePrice:   p.BasePrice,
			Variants:    variants,
			Position:    i,
		}
		if err := product.Validate(); err != nil {
			return fmt.Errorf("catalog: product %d: %w", i, err)
		}
		seed.Products = append(seed.Products, product)
	}
	return nil
}

func (f *catalogFile) decodeFees(seed *Seed) error {
	seen := make(map[string]bool)
	for i, fe := range f.Fees {
		if fe.ID == "" || seen[fe.ID] {
			return fmt.Errorf("catalog: fee %d has a missing or duplicate id", i)
		}
		seen[fe.ID] = true

		rule := domain.FeeRule{
			FeeID:    fe.ID,
			Label:    fe.Label,
			Kind:     domain.FeeKind(fe.Kind),
			Value:    fe.Value,
			Position: i,
		}
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("catalog: fee %q: %w", fe.ID, err)
		}
		seed.Fees = append(seed.Fees, rule)
	}
	return nil
}

func (f *catalogFile) decodeUsers(seed *Seed) error {
	emails := make(map[string]bool)
	for _, u := range f.Users {
		user, err := domain.NewUser(u.ID, u.Name, u.Email, domain.UserRole(u.Role), u.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("catalog: user %q: %w", u.ID, err)
		}
		if emails[user.Email] {
			return fmt.Errorf("catalog: user %q: %w", u.ID, domain.ErrDuplicateEmail)
		}
		emails[user.Email] = true
		if u.Avatar != "" {
			user.Avatar = u.Avatar
		}
		user.IsActive = !u.Inactive
		seed.Users = append(seed.Users, user)
	}
	return nil
}

func (f *catalogFile) decodeOrders(seed *Seed) error {
	for _, o := range f.Orders {
		status := domain.OrderStatus(o.Status)
		if o.ID == "" || !status.IsValid() {
			return fmt.Errorf("catalog: order %q has no id or an unknown status", o.ID)
		}
		if o.TotalPrice.IsNegative() || o.BasePrice.IsNegative() {
			return fmt.Errorf("catalog: order %q: %w", o.ID, domain.ErrInvalidAmount)
		}

		fees := make([]domain.AppliedFee, 0, len(o.AppliedFees))
		for _, af := range o.AppliedFees {
			fees = append(fees, domain.AppliedFee{Label: af.Label, Amount: af.Amount})
		}

		createdAt := o.CreatedAt.UTC()
		order := &domain.Order{
			OrderID:       o.ID,
			CustomerName:  o.CustomerName,
			CustomerEmail: domain.NormalizeEmail(o.Email),
			ServiceType:   domain.ServiceType(o.ServiceType),
			ProductID:     o.ProductID,
			AnimalType:    domain.AnimalType(o.AnimalType),
			Weight:        o.Weight,
			LocationID:    o.LocationID,
			Location:      o.Location,
			BasePrice:     o.BasePrice,
			AppliedFees:   fees,
			TotalPrice:    o.TotalPrice,
			Beneficiaries: o.Beneficiaries,
			Status:        status,
			CreatedAt:     createdAt,
			UpdatedAt:     createdAt,
		}
		if d := o.Documentation; d != nil {
			order.Documentation = &domain.Documentation{
				Photos:         d.Photos,
				Video:          d.Video,
				YouTubeURL:     d.YouTubeURL,
				EarTag:         d.EarTag,
				CertificateURL: d.CertificateURL,
				AttachedAt:     createdAt,
			}
		}
		seed.Orders = append(seed.Orders, order)
	}
	return nil
}

func (f *catalogFile) decodeArticles(seed *Seed) error {
	for _, a := range f.Articles {
		createdAt := a.CreatedAt.UTC()
		article := &domain.Article{
			ArticleID: a.ID,
			Title:     a.Title,
			Content:   a.Content,
			Author:    a.Author,
			Image:     a.Image,
			Category:  a.Category,
			Status:    domain.ArticleStatus(a.Status),
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
		if err := article.Validate(); err != nil {
			return fmt.Errorf("catalog: article %q: %w", a.ID, err)
		}
		seed.Articles = append(seed.Articles, article)
	}
	return nil
}
