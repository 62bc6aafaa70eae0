package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"storefront/internal/apiclient"
	"storefront/internal/domain"
	"storefront/internal/pending"
	"storefront/internal/service"
	"storefront/internal/session"
)

// Services is everything the local surface drives.
type Services struct {
	Store    *session.Store
	Auth     *service.AuthService
	Cart     *service.CartService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Profiles *service.ProfileService
	Products *service.ProductService
	// Notes, when set, is drained by GET /notifications.
	Notes *service.Recorder
}

type Server struct {
	engine *gin.Engine
	svc    Services
	log    *slog.Logger
}

func NewServer(svc Services, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	s := &Server{engine: r, svc: svc, log: log}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")
	{
		sess := v1.Group("/session")
		sess.GET("", s.currentSession)
		sess.POST("/login", s.login)
		sess.POST("/register", s.register)
		sess.POST("/logout", s.logout)
		sess.GET("/profile", s.ownProfile)
		sess.PUT("/profile", s.updateOwnProfile)

		products := v1.Group("/products")
		products.GET("", s.listProducts)
		products.GET(":id", s.getProduct)
		products.POST("", s.createProduct)
		products.PUT(":id", s.updateProduct)
		products.DELETE(":id", s.deleteProduct)

		cart := v1.Group("/cart")
		cart.GET("", s.getCart)
		cart.DELETE("", s.clearCart)
		cart.POST("/items", s.addItem)
		cart.PUT("/items/:id", s.updateItem)
		cart.DELETE("/items/:id", s.removeItem)

		v1.POST("/checkout", s.checkout)
		v1.GET("/checkout", s.checkoutState)
		v1.GET("/pending", s.pendingKeys)
		v1.GET("/notifications", s.notifications)

		admin := v1.Group("/admin")
		admin.GET("/orders", s.listOrders)
		admin.GET("/orders/:id", s.getOrder)
		admin.POST("/orders/:id/cancel", s.cancelOrder)
		admin.GET("/profiles/:id", s.getProfile)
	}
}

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) fail(c *gin.Context, err error, fallback string) {
	status := mapErrorToStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, errorBody{Error: service.Message(err, fallback), Kind: service.Classify(err).String()})
}

// Session handlers

type sessionResp struct {
	Active bool         `json:"active"`
	User   *domain.User `json:"user,omitempty"`
	Role   domain.Role  `json:"role"`
}

// @Summary Current session
// @Tags session
// @Produce json
// @Success 200 {object} sessionResp
// @Router /session [get]
func (s *Server) currentSession(c *gin.Context) {
	u := s.svc.Store.User()
	c.JSON(http.StatusOK, sessionResp{Active: s.svc.Store.Active(), User: u, Role: domain.RoleOf(u)})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary Log in
// @Tags session
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} domain.User
// @Failure 400 {object} errorBody
// @Failure 401 {object} errorBody
// @Router /session/login [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid json", Kind: service.KindValidation.String()})
		return
	}
	u, err := s.svc.Auth.Login(c, req.Email, req.Password)
	if err != nil {
		s.fail(c, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, u)
}

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary Register and log in
// @Tags session
// @Accept json
// @Produce json
// @Param input body registerReq true "Account"
// @Success 201 {object} domain.User
// @Failure 400 {object} errorBody
// @Router /session/register [post]
func (s *Server) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid json", Kind: service.KindValidation.String()})
		return
	}
	u, err := s.svc.Auth.Register(c, req.Name, req.Email, req.Password)
	if err != nil {
		s.fail(c, err, "Registration failed")
		return
	}
	c.JSON(http.StatusCreated, u)
}

// @Summary Log out
// @Tags session
// @Success 204
// @Failure 502 {object} errorBody
// @Router /session/logout [post]
func (s *Server) logout(c *gin.Context) {
	if err := s.svc.Auth.Logout(c); err != nil {
		s.fail(c, err, "Logout failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Own profile
// @Tags session
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} errorBody
// @Router /session/profile [get]
func (s *Server) ownProfile(c *gin.Context) {
	u, err := s.svc.Auth.Profile(c)
	if err != nil {
		s.fail(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Update own profile
// @Tags session
// @Accept json
// @Produce json
// @Param input body apiclient.ProfileUpdate true "Fields to change"
// @Success 200 {object} domain.User
// @Failure 400 {object} errorBody
// @Failure 401 {object} errorBody
// @Router /session/profile [put]
func (s *Server) updateOwnProfile(c *gin.Context) {
	var req apiclient.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid json", Kind: service.KindValidation.String()})
		return
	}
	u, err := s.svc.Auth.UpdateProfile(c, req)
	if err != nil {
		s.fail(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, u)
}

// Product handlers

// @Summary List products
// @Tags products
// @Produce json
// @Param q query string false "Name contains"
// @Success 200 {array} domain.Product
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	list, err := s.svc.Products.List(c, c.Query("q"))
	if err != nil {
		s.fail(c, err, "Failed to load products")
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get product by id
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} errorBody
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	p, err := s.svc.Products.GetByID(c, c.Param("id"))
	if err != nil {
		s.fail(c, err, "Failed to load product")
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Param input body apiclient.ProductInput true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} errorBody
// @Failure 403 {object} errorBody
// @Router /products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req apiclient.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid json", Kind: service.KindValidation.String()})
		return
	}
	p, err := s.svc.Products.Create(c, req)
	if err != nil {
		s.fail(c, err, "Failed to add product")
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param input body apiclient.ProductInput true "Fields to change"
// @Success 200 {object} domain.Product
// @Failure 400 {object} errorBody
// @Failure 403 {object} errorBody
// @Failure 404 {object} errorBody
// @Router /products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	var req apiclient.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid json", Kind: service.KindValidation.String()})
		return
	}
	p, err := s.svc.Products.Update(c, c.Param("id"), req)
	if err != nil {
		s.fail(c, err, "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags products
// @Param id path string true "Product ID"
// @Success 204
// @Failure 403 {object} errorBody
// @Failure 404 {object} errorBody
// @Router /products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.svc.Products.Delete(c, c.Param("id")); err != nil {
		s.fail(c, err, "Failed to delete product")
		return
	}
	c.Status(http.StatusNoContent)
}

// Cart handlers

// @Summary Get cart
// @Tags cart
// @Produce json
// @Success 200 {object} domain.Cart
// @Failure 401 {object} errorBody
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	cart, err := s.svc.Cart.GetCart(c)
	if err != nil {
		s.fail(c, err, "Failed to load cart")
		return
	}
	c.JSON(http.StatusOK, cart)
}

type addItemReq struct {
	ProductID any `json:"productId" swaggertype:"string"`
	Qty       int `json:"qty"`
}

// @Summary Add item to cart
// @Tags cart
// @Accept json
// @Produce json
// @Param input body addItemReq true "Item"
// @Success 200 {object} domain.Cart
// @Failure 400 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /cart/items [post]
func (s *Server) addItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid json", Kind: service.KindValidation.String()})
		return
	}
	cart, err := s.svc.Cart.AddItem(c, req.ProductID, req.Qty)
	if err != nil {
		s.fail(c, err, "Failed to add to cart")
		return
	}
	c.JSON(http.StatusOK, cart)
}

type updateItemReq struct {
	Qty int `json:"qty"`
}

// @Summary Set item quantity
// @Tags cart
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param input body updateItemReq true "Quantity"
// @Success 200 {object} domain.Cart
// @Failure 400 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /cart/items/{id} [put]
func (s *Server) updateItem(c *gin.Context) {
	var req updateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid json", Kind: service.KindValidation.String()})
		return
	}
	cart, err := s.svc.Cart.UpdateItemQty(c, c.Param("id"), req.Qty)
	if err != nil {
		s.fail(c, err, "Failed to update quantity")
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Remove item from cart
// @Tags cart
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} domain.Cart
// @Failure 404 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /cart/items/{id} [delete]
func (s *Server) removeItem(c *gin.Context) {
	cart, err := s.svc.Cart.RemoveItem(c, c.Param("id"))
	if err != nil {
		s.fail(c, err, "Failed to remove item from cart")
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Clear cart
// @Description Requires confirmed=true; without it nothing is sent.
// @Tags cart
// @Produce json
// @Param confirmed query bool false "User confirmed"
// @Success 200 {object} domain.Cart
// @Failure 428 {object} errorBody
// @Router /cart [delete]
func (s *Server) clearCart(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirmed"))
	cart, err := s.svc.Cart.ClearCart(c, service.ClearOptions{Confirmed: confirmed})
	if err != nil {
		s.fail(c, err, "Failed to clear cart")
		return
	}
	c.JSON(http.StatusOK, cart)
}

// Checkout handlers

type checkoutReq struct {
	PaymentMethod string `json:"paymentMethod"`
}

type checkoutResp struct {
	OrderID  domain.EntityID `json:"orderId"`
	Order    *domain.Order   `json:"order,omitempty"`
	Cart     *domain.Cart    `json:"cart"`
	ClearErr string          `json:"clearError,omitempty"`
}

// @Summary Place order from the cart
// @Tags checkout
// @Accept json
// @Produce json
// @Param input body checkoutReq false "Payment method"
// @Success 201 {object} checkoutResp
// @Failure 400 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /checkout [post]
func (s *Server) checkout(c *gin.Context) {
	var req checkoutReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorBody{Error: "invalid json", Kind: service.KindValidation.String()})
			return
		}
	}
	res, err := s.svc.Checkout.Checkout(c, req.PaymentMethod)
	if err != nil {
		s.fail(c, err, "Failed to place order")
		return
	}
	out := checkoutResp{OrderID: res.Receipt.OrderID, Order: res.Receipt.Order, Cart: res.Cart}
	if res.ClearErr != nil {
		out.ClearErr = service.Message(res.ClearErr, "Failed to clear cart")
	}
	c.JSON(http.StatusCreated, out)
}

// @Summary Checkout state
// @Tags checkout
// @Produce json
// @Success 200 {object} map[string]string
// @Router /checkout [get]
func (s *Server) checkoutState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state": s.svc.Checkout.State().String(),
		"last":  s.svc.Checkout.Last().String(),
	})
}

// @Summary Keys with a write in flight
// @Tags cart
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /pending [get]
func (s *Server) pendingKeys(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pending": s.svc.Store.Pending().Keys()})
}

// @Summary Drain notifications
// @Tags session
// @Produce json
// @Success 200 {array} service.Note
// @Router /notifications [get]
func (s *Server) notifications(c *gin.Context) {
	notes := []service.Note{}
	if s.svc.Notes != nil {
		notes = append(notes, s.svc.Notes.Drain()...)
	}
	c.JSON(http.StatusOK, notes)
}

// Admin handlers

// @Summary List orders
// @Tags admin
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} domain.OrderPage
// @Failure 403 {object} errorBody
// @Router /admin/orders [get]
func (s *Server) listOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	p, err := s.svc.Orders.ListOrders(c, page, limit)
	if err != nil {
		s.fail(c, err, "Failed to load orders")
		return
	}
	c.JSON(http.StatusOK, p)
}

type orderResp struct {
	Order        *domain.Order        `json:"order"`
	Customer     service.CustomerView `json:"customer"`
	CustomerName string               `json:"customerName"`
}

// @Summary Get order with customer
// @Tags admin
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} orderResp
// @Failure 403 {object} errorBody
// @Failure 404 {object} errorBody
// @Router /admin/orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	v, err := s.svc.Orders.ViewOrder(c, c.Param("id"))
	if err != nil {
		s.fail(c, err, "Failed to load order")
		return
	}
	c.JSON(http.StatusOK, orderResp{Order: v.Order, Customer: v.Customer, CustomerName: v.Customer.DisplayName()})
}

// @Summary Cancel order
// @Tags admin
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 403 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /admin/orders/{id}/cancel [post]
func (s *Server) cancelOrder(c *gin.Context) {
	o, err := s.svc.Orders.CancelOrder(c, c.Param("id"))
	if err != nil {
		s.fail(c, err, "Failed to cancel order")
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Get customer profile
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} domain.User
// @Failure 403 {object} errorBody
// @Failure 404 {object} errorBody
// @Router /admin/profiles/{id} [get]
func (s *Server) getProfile(c *gin.Context) {
	u, err := s.svc.Profiles.GetProfile(c, c.Param("id"))
	if err != nil {
		s.fail(c, err, "Failed to load customer details")
		return
	}
	c.JSON(http.StatusOK, u)
}

func mapErrorToStatus(err error) int {
	var se *apiclient.ServiceError
	switch {
	case errors.Is(err, service.ErrClearNotConfirmed):
		return http.StatusPreconditionRequired
	case errors.Is(err, service.ErrProfileUnavailable):
		return http.StatusNotFound
	case errors.Is(err, pending.ErrAbandoned):
		return http.StatusConflict
	}
	switch service.Classify(err) {
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindUnauthorized:
		return http.StatusForbidden
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindBusy:
		return http.StatusConflict
	case service.KindCancelled:
		return http.StatusRequestTimeout
	case service.KindNetwork:
		return http.StatusBadGateway
	case service.KindService:
		if errors.As(err, &se) && se.Status >= 400 && se.Status < 500 {
			return se.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
