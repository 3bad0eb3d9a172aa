package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DishCategory struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string `gorm:"unique;not null"          json:"name"`
	Order     uint   `gorm:"not null"                 json:"order"`
	IsVisible bool   `gorm:"default:true"             json:"is_visible"`
	Dishes    []Dish `gorm:"foreignKey:CategoryID"    json:"dishes,omitempty"`
}

type Dish struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string          `gorm:"unique;not null"           json:"name"`
	Slug        string          `gorm:"unique;not null;index"     json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2)"        json:"price"`
	Photo       string          `json:"photo"`
	IsVisible   bool            `gorm:"default:true"              json:"is_visible"`
	Order       uint            `gorm:"not null"                  json:"order"`
	CategoryID  uint            `gorm:"index;not null"            json:"category_id"`
}

type Gallery struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Photo     string `gorm:"not null"                 json:"photo"`
	Title     string `json:"title"`
	IsVisible bool   `gorm:"default:true"             json:"is_visible"`
}

// MainMenuItem is a site navigation entry, served to the frontend ordered
// by Order.
type MainMenuItem struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string `gorm:"not null"                 json:"title"`
	Slug          string `gorm:"index;not null"           json:"slug"`
	URL           string `json:"url"`
	IsAnchor      bool   `gorm:"default:false"            json:"is_anchor"`
	IsManagerOnly bool   `gorm:"default:false"            json:"is_manager_only"`
	IsVisible     bool   `gorm:"default:true"             json:"is_visible"`
	Order         uint   `gorm:"not null"                 json:"order"`
}

type PostCategory struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null"          json:"name"`
}

type Tag struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"not null"                 json:"name"`
}

type Post struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title      string    `gorm:"not null"                 json:"title"`
	Content    string    `gorm:"not null"                 json:"content"`
	AuthorID   uint      `gorm:"index;not null"           json:"author_id"`
	IsVisible  bool      `gorm:"default:true"             json:"is_visible"`
	DatePosted time.Time `gorm:"autoCreateTime"           json:"date_posted"`
	CategoryID uint      `gorm:"index;not null"           json:"category_id"`
	Tags       []Tag     `gorm:"many2many:post_tags"      json:"tags,omitempty"`
}

type PostImage struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Path   string `gorm:"not null"                 json:"path"`
	PostID uint   `gorm:"index;not null"           json:"post_id"`
}

// Comment with a nil ParentID is top-level; replies reference their parent.
type Comment struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID     uint      `gorm:"index;not null"           json:"post_id"`
	Content    string    `gorm:"not null"                 json:"content"`
	Author     string    `gorm:"not null"                 json:"author"`
	Email      string    `gorm:"not null"                 json:"email"`
	DatePosted time.Time `gorm:"autoCreateTime"           json:"date_posted"`
	ParentID   *uint     `gorm:"index"                    json:"parent_id"`
}

type Reservation struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null"                 json:"name"`
	LastName    string    `gorm:"not null"                 json:"last_name"`
	Date        string    `gorm:"not null"                 json:"date"`
	Time        string    `gorm:"not null"                 json:"time"`
	Phone       string    `gorm:"not null"                 json:"phone"`
	Message     string    `json:"message"`
	IsProcessed bool      `gorm:"default:false"            json:"is_processed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Order.ID is a UUID assigned at checkout and never changed afterwards.
type Order struct {
	ID        string    `gorm:"primaryKey"     json:"id"`
	OrderDate time.Time `gorm:"autoCreateTime" json:"order_date"`
	Status    string    `gorm:"not null"       json:"status"`
}

type UserData struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     string `gorm:"index;not null"           json:"order_id"`
	UserID      *uint  `gorm:"index"                    json:"user_id"`
	FirstName   string `gorm:"not null"                 json:"first_name"`
	LastName    string `gorm:"not null"                 json:"last_name"`
	StreetName  string `gorm:"not null"                 json:"street_name"`
	HouseNumber string `gorm:"not null"                 json:"house_number"`
	Phone       string `gorm:"not null"                 json:"phone"`
	Email       string `gorm:"not null"                 json:"email"`
}

// OrderDishesList.Price is copied from the dish at purchase time and does
// not track later catalog price changes.
type OrderDishesList struct {
	ID       uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID  string          `gorm:"index;not null"           json:"order_id"`
	DishID   uint            `gorm:"index;not null"           json:"dish_id"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2)"       json:"price"`
	Quantity uint            `gorm:"default:1"                json:"quantity"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"not null"                 json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}
