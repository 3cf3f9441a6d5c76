package httpserver

import (
	"time"

	"marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type userResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}

func toUser(u domain.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		Role:       string(u.Role),
		Phone:      u.Phone,
		Address:    u.Address,
		IsApproved: u.IsApproved,
		CreatedAt:  u.CreatedAt,
	}
}

func toUsers(list []domain.User) []userResponse {
	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, toUser(u))
	}
	return out
}

type businessResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Address     string    `json:"address,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func toBusiness(b domain.Business) businessResponse {
	return businessResponse{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		Name:        b.Name,
		Description: b.Description,
		Address:     b.Address,
		Phone:       b.Phone,
		Email:       b.Email,
		IsActive:    b.IsActive,
		CreatedAt:   b.CreatedAt,
	}
}

func toBusinesses(list []domain.Business) []businessResponse {
	out := make([]businessResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBusiness(b))
	}
	return out
}

type categoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

type productResponse struct {
	ID            string    `json:"id"`
	BusinessID    string    `json:"business_id"`
	CategoryID    *string   `json:"category_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         string    `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	IsAvailable   bool      `json:"is_available"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toProduct(p domain.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		BusinessID:    p.BusinessID,
		CategoryID:    p.CategoryID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         money(p.Price),
		StockQuantity: p.StockQuantity,
		IsAvailable:   p.IsAvailable,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toProducts(list []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProduct(p))
	}
	return out
}

type totalsResponse struct {
	Subtotal     string `json:"subtotal"`
	Tax          string `json:"tax"`
	TotalWithTax string `json:"total_with_tax"`
}

func toTotals(t domain.Totals) totalsResponse {
	return totalsResponse{
		Subtotal:     money(t.Subtotal),
		Tax:          money(t.Tax),
		TotalWithTax: money(t.TotalWithTax),
	}
}

type cartItemResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	BusinessID   string    `json:"business_id"`
	BusinessName string    `json:"business_name"`
	UnitPrice    string    `json:"unit_price"`
	Quantity     int       `json:"quantity"`
	LineTotal    string    `json:"line_total"`
	AddedAt      time.Time `json:"added_at"`
}

type cartResponse struct {
	ID        string             `json:"id"`
	Items     []cartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	totalsResponse
}

func toCart(c domain.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(c.Items))
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
		items = append(items, cartItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			BusinessID:   item.BusinessID,
			BusinessName: item.Business,
			UnitPrice:    money(item.UnitPrice),
			Quantity:     item.Quantity,
			LineTotal:    money(item.LineTotal()),
			AddedAt:      item.AddedAt,
		})
	}
	return cartResponse{
		ID:             c.ID,
		Items:          items,
		ItemCount:      count,
		totalsResponse: toTotals(domain.TotalsFor(c.Subtotal())),
	}
}

type paymentResponse struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"order_id"`
	Method         string    `json:"payment_method"`
	Amount         string    `json:"amount"`
	Status         string    `json:"status"`
	TransactionID  string    `json:"transaction_id"`
	ProofOfPayment *string   `json:"proof_of_payment,omitempty"`
	CardLastFour   *string   `json:"card_last_four,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toPayment(p domain.Payment) paymentResponse {
	return paymentResponse{
		ID:             p.ID,
		OrderID:        p.OrderID,
		Method:         string(p.Method),
		Amount:         money(p.Amount),
		Status:         string(p.Status),
		TransactionID:  p.TransactionID,
		ProofOfPayment: p.ProofOfPayment,
		CardLastFour:   p.CardLastFour,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type orderItemResponse struct {
	ID          string  `json:"id"`
	ProductID   *string `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       string  `json:"price"`
	LineTotal   string  `json:"line_total"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	CheckoutID      string              `json:"checkout_id"`
	CustomerID      string              `json:"customer_id"`
	BusinessID      *string             `json:"business_id"`
	BusinessName    string              `json:"business_name"`
	Status          string              `json:"status"`
	DeliveryOption  string              `json:"delivery_option"`
	DeliveryAddress *string             `json:"delivery_address,omitempty"`
	DeliveryPhone   *string             `json:"delivery_phone,omitempty"`
	TotalAmount     string              `json:"total_amount"`
	Items           []orderItemResponse `json:"items"`
	Payments        []paymentResponse   `json:"payments"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	totalsResponse
}

func toOrder(o domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       money(item.Price),
			LineTotal:   money(item.LineTotal()),
		})
	}
	payments := make([]paymentResponse, 0, len(o.Payments))
	for _, p := range o.Payments {
		payments = append(payments, toPayment(p))
	}
	return orderResponse{
		ID:              o.ID,
		CheckoutID:      o.CheckoutID,
		CustomerID:      o.CustomerID,
		BusinessID:      o.BusinessID,
		BusinessName:    o.BusinessName,
		Status:          string(o.Status),
		DeliveryOption:  string(o.DeliveryOption),
		DeliveryAddress: o.DeliveryAddress,
		DeliveryPhone:   o.DeliveryPhone,
		TotalAmount:     money(o.TotalAmount),
		Items:           items,
		Payments:        payments,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		totalsResponse:  toTotals(o.Totals()),
	}
}

func toOrders(list []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toOrder(o))
	}
	return out
}

type feeResponse struct {
	ID             string     `json:"id"`
	BusinessID     string     `json:"business_id"`
	BusinessName   string     `json:"business_name"`
	PeriodStart    string     `json:"period_start"`
	PeriodEnd      string     `json:"period_end"`
	TotalRevenue   string     `json:"total_revenue"`
	AdminFeeAmount string     `json:"admin_fee_amount"`
	IsPaid         bool       `json:"is_paid"`
	PaidDate       *time.Time `json:"paid_date"`
	PaymentMethod  *string    `json:"payment_method"`
}

func toFee(f domain.AdminFeePayment) feeResponse {
	return feeResponse{
		ID:             f.ID,
		BusinessID:     f.BusinessID,
		BusinessName:   f.BusinessName,
		PeriodStart:    f.PeriodStart.Format(dateLayout),
		PeriodEnd:      f.PeriodEnd.Format(dateLayout),
		TotalRevenue:   money(f.TotalRevenue),
		AdminFeeAmount: money(f.AdminFeeAmount),
		IsPaid:         f.IsPaid,
		PaidDate:       f.PaidDate,
		PaymentMethod:  f.PaymentMethod,
	}
}

type reviewResponse struct {
	ID           string    `json:"id"`
	ReviewerID   string    `json:"reviewer_id"`
	ReviewerName string    `json:"reviewer_name"`
	Target       string    `json:"target"`
	TargetID     string    `json:"target_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	Likes        int       `json:"likes"`
	Dislikes     int       `json:"dislikes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toReview(r domain.Review) reviewResponse {
	return reviewResponse{
		ID:           r.ID,
		ReviewerID:   r.ReviewerID,
		ReviewerName: r.ReviewerName,
		Target:       string(r.Target),
		TargetID:     r.TargetID,
		Rating:       r.Rating,
		Comment:      r.Comment,
		Likes:        r.Likes,
		Dislikes:     r.Dislikes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toReviews(list []domain.Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toReview(r))
	}
	return out
}
