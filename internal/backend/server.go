package backend

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

const (
	tokenCookie = "token"
	userKey     = "user"
)

// Options configures a Server.
type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	Pricing   Pricing
	Logger    *slog.Logger
}

type Server struct {
	engine   *gin.Engine
	log      *slog.Logger
	ttl      time.Duration
	accounts *Accounts
	catalog  *Catalog
	carts    *Carts
	orders   *Orders
	users    repository.UserRepository
}

// New wires the service over an in-memory store.
func New(store *repository.MemoryStore, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.JWTSecret == "" {
		opts.JWTSecret = "dev-secret"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	users := repository.NewMemoryUsers(store)
	tx := repository.NewMemoryTx(store)
	carts := NewCarts(store, repository.NewMemoryCarts(store), tx, opts.Pricing)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	s := &Server{
		engine:   r,
		log:      opts.Logger,
		ttl:      opts.TokenTTL,
		accounts: NewAccounts(users, opts.JWTSecret, opts.TokenTTL),
		catalog:  NewCatalog(store),
		carts:    carts,
		orders:   NewOrders(store, carts, repository.NewMemoryOrders(store), tx),
		users:    users,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) Accounts() *Accounts { return s.accounts }

func (s *Server) Catalog() *Catalog { return s.catalog }

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/register", s.register)
		auth.POST("/login", s.login)
		auth.POST("/logout", s.logout)
		auth.GET("/profile", s.requireAuth, s.getProfile)
		auth.PUT("/profile", s.requireAuth, s.updateProfile)

		products := api.Group("/products")
		products.GET("", s.listProducts)
		products.GET(":id", s.getProduct)
		products.POST("", s.requireAuth, s.requireAdmin, s.createProduct)
		products.PUT(":id", s.requireAuth, s.requireAdmin, s.updateProduct)
		products.DELETE(":id", s.requireAuth, s.requireAdmin, s.deleteProduct)

		cart := api.Group("/cart", s.requireAuth)
		cart.GET("", s.getCart)
		cart.DELETE("", s.clearCart)
		cart.POST("/items", s.addItem)
		cart.PUT("/items/:id", s.updateItem)
		cart.DELETE("/items/:id", s.removeItem)

		orders := api.Group("/orders", s.requireAuth)
		orders.POST("", s.placeOrder)
		orders.GET("", s.listOrders)
		orders.GET(":id", s.getOrder)
		orders.PUT(":id/cancel", s.requireAdmin, s.cancelOrder)
	}
}

// Middleware

func (s *Server) requireAuth(c *gin.Context) {
	token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	if token == "" {
		token, _ = c.Cookie(tokenCookie)
	}
	u, err := s.accounts.Authenticate(c, token)
	if err != nil {
		s.fail(c, err)
		c.Abort()
		return
	}
	c.Set(userKey, u)
	c.Next()
}

func (s *Server) requireAdmin(c *gin.Context) {
	if !isAdmin(caller(c)) {
		s.fail(c, ErrAdminOnly)
		c.Abort()
		return
	}
	c.Next()
}

func caller(c *gin.Context) *repository.UserRecord {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*repository.UserRecord)
	return u
}

// Auth handlers

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	u, tok, err := s.accounts.Register(c, req.Name, req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.setSession(c, tok)
	c.JSON(http.StatusCreated, gin.H{"token": tok, "user": toUserDoc(u)})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	u, tok, err := s.accounts.Login(c, req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.setSession(c, tok)
	c.JSON(http.StatusOK, gin.H{"token": tok, "user": toUserDoc(u)})
}

func (s *Server) logout(c *gin.Context) {
	c.SetCookie(tokenCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (s *Server) setSession(c *gin.Context, tok string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, tok, int(s.ttl/time.Second), "/", "", false, true)
}

func (s *Server) getProfile(c *gin.Context) {
	u, err := s.accounts.Profile(c, caller(c), c.Query("userId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	doc, err := profileDocument(u)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": doc})
}

type updateProfileReq struct {
	Name    *string         `json:"name"`
	Phone   *string         `json:"phone"`
	Address *domain.Address `json:"address"`
}

func (s *Server) updateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	u, err := s.accounts.UpdateProfile(c, caller(c), ProfilePatch(req))
	if err != nil {
		s.fail(c, err)
		return
	}
	doc, err := profileDocument(u)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": doc})
}

// Product handlers

func (s *Server) listProducts(c *gin.Context) {
	var f repository.ProductFilter
	if q := c.Query("q"); q != "" {
		f.NameSubstring = q
	}
	if v := c.Query("min_price"); v != "" {
		if x, err := decimal.NewFromString(v); err == nil {
			f.MinPrice = &x
		}
	}
	if v := c.Query("max_price"); v != "" {
		if x, err := decimal.NewFromString(v); err == nil {
			f.MaxPrice = &x
		}
	}
	list, err := s.catalog.List(c, f)
	if err != nil {
		s.fail(c, err)
		return
	}
	docs := make([]productDoc, 0, len(list))
	for _, p := range list {
		docs = append(docs, toProductDoc(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": docs})
}

func (s *Server) getProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	p, err := s.catalog.GetByID(c, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": toProductDoc(*p)})
}

type productReq struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Images      []domain.Image   `json:"images"`
	Stock       *int             `json:"stock"`
}

func (r productReq) patch() ProductPatch {
	p := ProductPatch{Name: r.Name, Description: r.Description, Price: r.Price, Stock: r.Stock}
	if r.Images != nil {
		p.Images = make([]string, 0, len(r.Images))
		for _, img := range r.Images {
			p.Images = append(p.Images, img.URL)
		}
	}
	return p
}

func (s *Server) createProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	patch := req.patch()
	rec := repository.ProductRecord{Images: patch.Images, Stock: 100}
	if patch.Name != nil {
		rec.Name = *patch.Name
	}
	if patch.Description != nil {
		rec.Description = *patch.Description
	}
	if patch.Price != nil {
		rec.Price = *patch.Price
	}
	if patch.Stock != nil {
		rec.Stock = *patch.Stock
	}
	p, err := s.catalog.Create(c, rec)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": toProductDoc(*p)})
}

func (s *Server) updateProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	p, err := s.catalog.Update(c, id, req.patch())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": toProductDoc(*p)})
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.catalog.Delete(c, id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// Cart handlers

func (s *Server) getCart(c *gin.Context) {
	q, err := s.carts.View(c, caller(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartDoc(q))
}

type addItemReq struct {
	ProductID domain.EntityID `json:"productId"`
	Qty       *int            `json:"qty"`
}

func (s *Server) addItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	pid, err := parseID(req.ProductID.String())
	if err != nil {
		s.fail(c, err)
		return
	}
	qty := 1
	if req.Qty != nil {
		qty = *req.Qty
	}
	if err := s.carts.AddItem(c, caller(c).ID, pid, qty); err != nil {
		s.fail(c, err)
		return
	}
	s.respondCart(c, http.StatusOK, "Item added to cart")
}

type updateItemReq struct {
	Qty int `json:"qty"`
}

func (s *Server) updateItem(c *gin.Context) {
	pid, err := parseID(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var req updateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	if err := s.carts.SetQty(c, caller(c).ID, pid, req.Qty); err != nil {
		s.fail(c, err)
		return
	}
	s.respondCart(c, http.StatusOK, "Cart updated")
}

func (s *Server) removeItem(c *gin.Context) {
	pid, err := parseID(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.carts.RemoveItem(c, caller(c).ID, pid); err != nil {
		s.fail(c, err)
		return
	}
	s.respondCart(c, http.StatusOK, "Item removed from cart")
}

func (s *Server) clearCart(c *gin.Context) {
	if err := s.carts.Clear(c, caller(c).ID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

func (s *Server) respondCart(c *gin.Context, status int, msg string) {
	q, err := s.carts.View(c, caller(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(status, gin.H{"message": msg, "cart": toCartDoc(q)})
}

// Order handlers

type placeOrderReq struct {
	PaymentMethod string `json:"paymentMethod"`
}

func (s *Server) placeOrder(c *gin.Context) {
	var req placeOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	o, err := s.orders.PlaceOrder(c, caller(c).ID, req.PaymentMethod)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed", "orderId": o.ID, "order": toOrderDoc(*o, nil)})
}

func (s *Server) listOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	list, pages, err := s.orders.ListOrders(c, caller(c), page, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	docs := make([]orderDoc, 0, len(list))
	for _, o := range list {
		u, err := s.users.GetByID(c, o.UserID)
		if err != nil {
			u = nil
		}
		docs = append(docs, toOrderDoc(o, u))
	}
	c.JSON(http.StatusOK, gin.H{"orders": docs, "totalPages": pages, "page": page})
}

func (s *Server) getOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	o, err := s.orders.GetOrder(c, caller(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderDoc(*o, nil))
}

func (s *Server) cancelOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	o, err := s.orders.CancelOrder(c, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderDoc(*o, nil))
}

func parseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidInput
	}
	return id, nil
}

// fail writes err as {"message": ...} with its mapped status.
func (s *Server) fail(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "err", err)
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"message": msg})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidQty),
		errors.Is(err, ErrNotEnoughStock),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrNoPaymentMethod),
		errors.Is(err, ErrUnknownPayMethod),
		errors.Is(err, ErrEmailTaken):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoToken), errors.Is(err, ErrBadToken), errors.Is(err, ErrBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAdminOnly), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrItemNotInCart),
		errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
