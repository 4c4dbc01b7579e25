package httpapi

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, resolver *farm.Resolver, records *farm.Records) {
	h := &handlers{resolver: resolver, records: records}
	api := app.Group("/api")

	api.Post("/auth/login", h.login)
	api.Get("/auth/me/:userId", h.getUser)
	api.Patch("/auth/me/:userId", h.updateUser)

	api.Get("/weather/:location", h.weather)
	api.Get("/market-prices", h.marketPrices)

	api.Post("/crop-recommendations", h.recommendCrops)
	api.Get("/crop-recommendations/:userId", h.cropHistory)

	api.Post("/pest-detection", h.detectPest)
	api.Get("/pest-detections/:userId", h.pestHistory)

	api.Post("/iot-data", h.recordReading)
	api.Get("/iot-data/:userId", h.readings)
	api.Get("/iot-data/:userId/latest", h.latestReading)

	api.Get("/community", h.posts)
	api.Post("/community", h.createPost)
	api.Post("/community/:id/like", h.likePost)

	api.Get("/medicines", h.catalog)
	api.Get("/medicines/:id", h.catalogItem)
	api.Get("/cart", h.cart)
	api.Post("/cart/add", h.addToCart)
	api.Put("/cart/:id", h.setCartQuantity)
	api.Delete("/cart/:id", h.removeFromCart)
	api.Get("/orders", h.orders)
	api.Post("/orders", h.placeOrder)
}

type handlers struct {
	resolver *farm.Resolver
	records  *farm.Records
}

func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

func requireQuery(c *fiber.Ctx, key string) (string, error) {
	v := c.Query(key)
	if v == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, key+" query parameter is required")
	}
	return v, nil
}

func (h *handlers) login(c *fiber.Ctx) error {
	var req farm.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.records.Login(req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *handlers) getUser(c *fiber.Ctx) error {
	user, err := h.records.User(c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *handlers) updateUser(c *fiber.Ctx) error {
	var upd farm.UserUpdate
	if err := bind(c, &upd); err != nil {
		return err
	}
	user, err := h.records.UpdateUser(c.Params("userId"), upd)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *handlers) weather(c *fiber.Ctx) error {
	snap, err := h.resolver.ResolveWeather(c.UserContext(), c.Params("location"))
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

func (h *handlers) marketPrices(c *fiber.Ctx) error {
	res, err := h.resolver.ResolveMarketPrices(c.UserContext(), c.Query("crop"))
	if err != nil {
		return err
	}
	if res.Tier != "" {
		c.Set("X-Resolution-Tier", res.Tier)
	}
	c.Set("X-Synthetic", strconv.FormatBool(res.Synthetic))
	return c.JSON(res.Prices)
}

func (h *handlers) recommendCrops(c *fiber.Ctx) error {
	var req farm.CropRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rec, err := h.resolver.RecommendCrops(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (h *handlers) cropHistory(c *fiber.Ctx) error {
	return c.JSON(h.records.CropRecommendations(c.Params("userId")))
}

func (h *handlers) detectPest(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "image file is required")
	}
	if fh.Size > farm.MaxImageBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("image exceeds %d MB", farm.MaxImageBytes>>20))
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	image, err := io.ReadAll(io.LimitReader(f, farm.MaxImageBytes+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	det, err := h.resolver.DiagnosePest(c.UserContext(), farm.PestRequest{
		UserID:      c.FormValue("userId"),
		Image:       image,
		MimeType:    fh.Header.Get("Content-Type"),
		Description: c.FormValue("description"),
	})
	if err != nil {
		return err
	}
	return c.JSON(det)
}

func (h *handlers) pestHistory(c *fiber.Ctx) error {
	return c.JSON(h.records.PestDetections(c.Params("userId")))
}

func (h *handlers) recordReading(c *fiber.Ctx) error {
	var req farm.IoTReadingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	reading, err := h.records.RecordReading(req)
	if err != nil {
		return err
	}
	return c.JSON(reading)
}

func (h *handlers) readings(c *fiber.Ctx) error {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}
	return c.JSON(h.records.Readings(c.Params("userId"), limit))
}

func (h *handlers) latestReading(c *fiber.Ctx) error {
	reading, err := h.records.LatestReading(c.Params("userId"))
	if errors.Is(err, farm.ErrNotFound) {
		return c.JSON(nil)
	}
	if err != nil {
		return err
	}
	return c.JSON(reading)
}

func (h *handlers) posts(c *fiber.Ctx) error {
	return c.JSON(h.records.Posts(c.Query("category")))
}

func (h *handlers) createPost(c *fiber.Ctx) error {
	var req farm.PostRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	post, err := h.records.CreatePost(req)
	if err != nil {
		return err
	}
	return c.JSON(post)
}

func (h *handlers) likePost(c *fiber.Ctx) error {
	post, err := h.records.LikePost(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(post)
}

func (h *handlers) catalog(c *fiber.Ctx) error {
	return c.JSON(h.records.Catalog(c.Query("category"), c.Query("q")))
}

func (h *handlers) catalogItem(c *fiber.Ctx) error {
	item, err := h.records.CatalogItem(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(item)
}

func (h *handlers) cart(c *fiber.Ctx) error {
	userID, err := requireQuery(c, "userId")
	if err != nil {
		return err
	}
	return c.JSON(h.records.Cart(userID))
}

func (h *handlers) addToCart(c *fiber.Ctx) error {
	var req farm.CartRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	line, err := h.records.AddToCart(req)
	if err != nil {
		return err
	}
	return c.JSON(line)
}

func (h *handlers) setCartQuantity(c *fiber.Ctx) error {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := bind(c, &body); err != nil {
		return err
	}
	line, err := h.records.SetCartQuantity(c.Params("id"), body.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(line)
}

func (h *handlers) removeFromCart(c *fiber.Ctx) error {
	if err := h.records.RemoveFromCart(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) orders(c *fiber.Ctx) error {
	userID, err := requireQuery(c, "userId")
	if err != nil {
		return err
	}
	return c.JSON(h.records.Orders(userID))
}

func (h *handlers) placeOrder(c *fiber.Ctx) error {
	var req farm.OrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.records.PlaceOrder(req)
	if err != nil {
		return err
	}
	return c.JSON(order)
}
