package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
)

// QuoteCommand prices a product without opening a session. VariantIndex is
// a pointer for the same reason as in SetVariantCommand.
type QuoteCommand struct {
	ProductID    string `json:"productId" binding:"required"`
	VariantIndex *int   `json:"variantIndex" binding:"required,gte=0"`
	LocationID   string `json:"locationId" binding:"required"`
}

// SetServiceTypeCommand selects a service type
type SetServiceTypeCommand struct {
	ServiceType string `json:"serviceType" binding:"required,service_type"`
}

// SetProductCommand selects a product
type SetProductCommand struct {
	ProductID string `json:"productId" binding:"required"`
}

// SetVariantCommand selects a weight variant. Index is a pointer so that 0
// passes the required check.
type SetVariantCommand struct {
	VariantIndex *int `json:"variantIndex" binding:"required"`
}

// SetLocationCommand selects a location
type SetLocationCommand struct {
	LocationID string `json:"locationId" binding:"required"`
}

// SetBeneficiaryCommand names a beneficiary slot
type SetBeneficiaryCommand struct {
	Name string `json:"name"`
}

// ProductCommand creates or updates a catalog product
type ProductCommand struct {
	Name        *string          `json:"name"`
	AnimalType  *string          `json:"animalType"`
	ServiceType *string          `json:"serviceType" binding:"omitempty,service_type"`
	BasePrice   *decimal.Decimal `json:"basePrice"`
	Variants    []VariantDTO     `json:"variants" binding:"omitempty,dive"`
}

// FeeRuleCommand creates or updates a fee rule
type FeeRuleCommand struct {
	Label *string          `json:"label"`
	Kind  *string          `json:"kind" binding:"omitempty,fee_kind"`
	Value *decimal.Decimal `json:"value"`
}

// LoginCommand signs a user in by email and role
type LoginCommand struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,user_role"`
}

// RegisterCommand creates a customer account
type RegisterCommand struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// CreateUserCommand creates an account from the admin panel
type CreateUserCommand struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"omitempty,user_role"`
}

// ArticleCommand creates or updates a blog article
type ArticleCommand struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Author   *string `json:"author"`
	Image    *string `json:"image"`
	Category *string `json:"category"`
	Status   *string `json:"status" binding:"omitempty,article_status"`
}

// AdvanceStatusCommand moves an order forward
type AdvanceStatusCommand struct {
	Status string `json:"status" binding:"required,order_status"`
}

// AttachDocumentationCommand stores proof of execution on an order
type AttachDocumentationCommand struct {
	Photos         []string `json:"photos"`
	Video          string   `json:"video"`
	YouTubeURL     string   `json:"youtubeUrl"`
	EarTag         string   `json:"earTag"`
	CertificateURL string   `json:"certificateUrl"`
}

// ListOrdersQuery represents query to list orders
type ListOrdersQuery struct {
	Status        *string
	CustomerEmail *string
	ServiceType   *string
	Page          int64
	PageSize      int64
}

// VariantDTO represents a weight variant
type VariantDTO struct {
	Weight decimal.Decimal `json:"weight"`
	Price  decimal.Decimal `json:"price"`
}

// ProductDTO represents a catalog product in responses
type ProductDTO struct {
	ProductID   string       `json:"productId"`
	Name        string       `json:"name,omitempty"`
	AnimalType  string       `json:"animalType"`
	ServiceType string       `json:"serviceType"`
	BasePrice   string       `json:"basePrice"`
	Variants    []VariantDTO `json:"variants"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// LocationDTO represents a slaughter location
type LocationDTO struct {
	LocationID      string `json:"locationId"`
	Name            string `json:"name"`
	AdditionalPrice string `json:"additionalPrice"`
}

// FeeRuleDTO represents a fee rule
type FeeRuleDTO struct {
	FeeID     string    `json:"feeId"`
	Label     string    `json:"label"`
	Kind      string    `json:"kind"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppliedFeeDTO represents one charged fee
type AppliedFeeDTO struct {
	Label   string `json:"label"`
	Amount  string `json:"amount"`
	Display string `json:"display"`
}

// QuoteDTO is a priced selection
type QuoteDTO struct {
	BaseAmount        string          `json:"baseAmount"`
	AppliedFees       []AppliedFeeDTO `json:"appliedFees"`
	TotalFees         string          `json:"totalFees"`
	GrandTotal        string          `json:"grandTotal"`
	GrandTotalDisplay string          `json:"grandTotalDisplay"`
}

// SessionDTO is the current state of a catalog session
type SessionDTO struct {
	SessionID         string       `json:"sessionId"`
	ServiceType       string       `json:"serviceType"`
	AvailableProducts []ProductDTO `json:"availableProducts"`
	Product           *ProductDTO  `json:"product,omitempty"`
	VariantIndex      int          `json:"variantIndex"`
	Location          *LocationDTO `json:"location,omitempty"`
	Beneficiaries     []string     `json:"beneficiaries"`
	CanAddBeneficiary bool         `json:"canAddBeneficiary"`
	Quote             *QuoteDTO    `json:"quote,omitempty"`
	Reset             bool         `json:"reset,omitempty"`
}

// DocumentationDTO represents proof of execution
type DocumentationDTO struct {
	Photos         []string  `json:"photos"`
	Video          string    `json:"video,omitempty"`
	YouTubeURL     string    `json:"youtubeUrl,omitempty"`
	EarTag         string    `json:"earTag"`
	CertificateURL string    `json:"certificateUrl,omitempty"`
	AttachedAt     time.Time `json:"attachedAt"`
}

// OrderDTO represents an order in responses
type OrderDTO struct {
	OrderID       string            `json:"orderId"`
	CustomerName  string            `json:"customerName"`
	CustomerEmail string            `json:"customerEmail"`
	ServiceType   string            `json:"serviceType"`
	ProductID     string            `json:"productId"`
	AnimalType    string            `json:"animalType"`
	Weight        string            `json:"weight"`
	LocationID    string            `json:"locationId"`
	Location      string            `json:"location"`
	BasePrice     string            `json:"basePrice"`
	AppliedFees   []AppliedFeeDTO   `json:"appliedFees"`
	TotalPrice    string            `json:"totalPrice"`
	TotalDisplay  string            `json:"totalDisplay"`
	Beneficiaries []string          `json:"beneficiaries"`
	Status        string            `json:"status"`
	Documentation *DocumentationDTO `json:"documentation,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// UserDTO represents an account
type UserDTO struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// ArticleDTO represents a blog article
type ArticleDTO struct {
	ArticleID string    `json:"articleId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Image     string    `json:"image,omitempty"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DailyRevenueDTO is one point of the revenue series
type DailyRevenueDTO struct {
	Date    string `json:"date"`
	Orders  int    `json:"orders"`
	Revenue string `json:"revenue"`
}

// StatsDTO summarizes the marketplace for the admin dashboard
type StatsDTO struct {
	TotalOrders       int64             `json:"totalOrders"`
	OrdersByStatus    map[string]int64  `json:"ordersByStatus"`
	TotalRevenue      string            `json:"totalRevenue"`
	PendingDocs       int64             `json:"pendingDocumentation"`
	TotalUsers        int64             `json:"totalUsers"`
	ActiveUsers       int64             `json:"activeUsers"`
	LastSevenDays     []DailyRevenueDTO `json:"lastSevenDays"`
	PublishedArticles int               `json:"publishedArticles"`
}

// ToProductDTO converts a domain product to DTO
func ToProductDTO(p *domain.Product) *ProductDTO {
	variants := make([]VariantDTO, len(p.Variants))
	for i, v := range p.Variants {
		variants[i] = VariantDTO{Weight: v.Weight, Price: v.Price}
	}
	return &ProductDTO{
		ProductID:   p.ProductID,
		Name:        p.Name,
		AnimalType:  string(p.AnimalType),
		ServiceType: string(p.ServiceType),
		BasePrice:   p.BasePrice.String(),
		Variants:    variants,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProductDTOs converts a product slice
func ToProductDTOs(products []*domain.Product) []ProductDTO {
	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = *ToProductDTO(p)
	}
	return dtos
}

// ToLocationDTO converts a domain location to DTO
func ToLocationDTO(l domain.Location) LocationDTO {
	return LocationDTO{
		LocationID:      l.LocationID,
		Name:            l.Name,
		AdditionalPrice: l.AdditionalPrice.String(),
	}
}

// ToFeeRuleDTO converts a domain fee rule to DTO
func ToFeeRuleDTO(r domain.FeeRule) FeeRuleDTO {
	return FeeRuleDTO{
		FeeID:     r.FeeID,
		Label:     r.Label,
		Kind:      string(r.Kind),
		Value:     r.Value.String(),
		UpdatedAt: r.UpdatedAt,
	}
}

func toAppliedFeeDTOs(fees []domain.AppliedFee) []AppliedFeeDTO {
	dtos := make([]AppliedFeeDTO, len(fees))
	for i, f := range fees {
		dtos[i] = AppliedFeeDTO{
			Label:   f.Label,
			Amount:  f.Amount.String(),
			Display: domain.Display(f.Amount),
		}
	}
	return dtos
}

// ToQuoteDTO converts a fee breakdown to DTO
func ToQuoteDTO(b domain.FeeBreakdown) *QuoteDTO {
	return &QuoteDTO{
		BaseAmount:        b.BaseAmount.String(),
		AppliedFees:       toAppliedFeeDTOs(b.AppliedFees),
		TotalFees:         b.TotalFees().String(),
		GrandTotal:        b.GrandTotal.String(),
		GrandTotalDisplay: domain.Display(b.GrandTotal),
	}
}

// ToOrderDTO converts a domain order to DTO
func ToOrderDTO(o *domain.Order) *OrderDTO {
	dto := &OrderDTO{
		OrderID:       o.OrderID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		ServiceType:   string(o.ServiceType),
		ProductID:     o.ProductID,
		AnimalType:    string(o.AnimalType),
		Weight:        o.Weight.String(),
		LocationID:    o.LocationID,
		Location:      o.Location,
		BasePrice:     o.BasePrice.String(),
		AppliedFees:   toAppliedFeeDTOs(o.AppliedFees),
		TotalPrice:    o.TotalPrice.String(),
		TotalDisplay:  domain.Display(o.TotalPrice),
		Beneficiaries: append([]string(nil), o.Beneficiaries...),
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if doc := o.Documentation; doc != nil {
		dto.Documentation = &DocumentationDTO{
			Photos:         append([]string(nil), doc.Photos...),
			Video:          doc.Video,
			YouTubeURL:     doc.YouTubeURL,
			EarTag:         doc.EarTag,
			CertificateURL: doc.CertificateURL,
			AttachedAt:     doc.AttachedAt,
		}
	}
	return dto
}

// ToOrderDTOs converts an order slice
func ToOrderDTOs(orders []*domain.Order) []OrderDTO {
	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = *ToOrderDTO(o)
	}
	return dtos
}

// ToUserDTO converts a domain user to DTO
func ToUserDTO(u *domain.User) *UserDTO {
	return &UserDTO{
		UserID:    u.UserID,
		Name:      u.Name,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// ToArticleDTO converts a domain article to DTO
func ToArticleDTO(a *domain.Article) *ArticleDTO {
	return &ArticleDTO{
		ArticleID: a.ArticleID,
		Title:     a.Title,
		Content:   a.Content,
		Author:    a.Author,
		Image:     a.Image,
		Category:  a.Category,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ToArticleDTOs converts an article slice
func ToArticleDTOs(articles []*domain.Article) []ArticleDTO {
	dtos := make([]ArticleDTO, len(articles))
	for i, a := range articles {
		dtos[i] = *ToArticleDTO(a)
	}
	return dtos
}
