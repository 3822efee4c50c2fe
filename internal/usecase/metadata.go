package usecase

import (
	"encoding/json"
	"strconv"
	"strings"

	"brazadash/internal/domain"
)

// Metadata keys round-tripped through the gateway. Values are limited to 500
// characters by the gateway.
const (
	metaKind            = "kind"
	metaUserID          = "userId"
	metaRestaurantID    = "restaurantId"
	metaVendorUserID    = "vendorUserId"
	metaItems           = "items"
	metaSubtotal        = "subtotal"
	metaDeliveryFee     = "deliveryFee"
	metaTip             = "tip"
	metaPlatformFee     = "platformFee"
	metaTotal           = "total"
	metaDeliveryAddress = "deliveryAddress"
	metaNotes           = "notes"
	metaProviderID      = "providerId"
	metaServiceID       = "serviceId"
	metaPrice           = "price"
	metaBookingFee      = "bookingFee"
	metaRequestedDate   = "requestedDate"
	metaRequestedTime   = "requestedTime"
	metaOrderID         = "orderId"

	kindOrder    = "order"
	kindBooking  = "booking"
	kindTerminal = "terminal"

	maxMetaValue = 500
)

type metaItem struct {
	ID  string `json:"i"`
	Qty int    `json:"q"`
	P   string `json:"p"`
}

type orderMeta struct {
	UserID          string
	RestaurantID    string
	Items           []domain.OrderItem
	Totals          domain.OrderTotals
	DeliveryAddress string
	Notes           string
}

func money(v float64) string { return strconv.FormatFloat(domain.RoundCents(v), 'f', 2, 64) }

func (m orderMeta) encode() (map[string]string, error) {
	items := make([]metaItem, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, metaItem{ID: it.MenuItemID, Qty: it.Quantity, P: money(it.Price)})
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	out := map[string]string{
		metaKind:            kindOrder,
		metaUserID:          m.UserID,
		metaRestaurantID:    m.RestaurantID,
		metaItems:           string(raw),
		metaSubtotal:        money(m.Totals.Subtotal),
		metaDeliveryFee:     money(m.Totals.DeliveryFee),
		metaTip:             money(m.Totals.Tip),
		metaPlatformFee:     money(m.Totals.PlatformFee),
		metaTotal:           money(m.Totals.Total),
		metaDeliveryAddress: m.DeliveryAddress,
		metaNotes:           m.Notes,
	}
	if err := checkMetaSize(out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeOrderMeta(md map[string]string) (orderMeta, error) {
	var m orderMeta
	if md[metaKind] != kindOrder {
		return m, domain.ErrValidation("payment is not an order checkout")
	}
	var items []metaItem
	if err := json.Unmarshal([]byte(md[metaItems]), &items); err != nil {
		return m, domain.ErrValidation("payment metadata items malformed")
	}
	m.UserID = md[metaUserID]
	m.RestaurantID = md[metaRestaurantID]
	m.DeliveryAddress = md[metaDeliveryAddress]
	m.Notes = md[metaNotes]
	for _, it := range items {
		p, err := strconv.ParseFloat(it.P, 64)
		if err != nil {
			return m, domain.ErrValidation("payment metadata price malformed")
		}
		m.Items = append(m.Items, domain.OrderItem{MenuItemID: it.ID, Quantity: it.Qty, Price: p})
	}
	var err error
	fields := []struct {
		key string
		dst *float64
	}{
		{metaSubtotal, &m.Totals.Subtotal},
		{metaDeliveryFee, &m.Totals.DeliveryFee},
		{metaTip, &m.Totals.Tip},
		{metaPlatformFee, &m.Totals.PlatformFee},
		{metaTotal, &m.Totals.Total},
	}
	for _, f := range fields {
		if *f.dst, err = parseMoney(md, f.key); err != nil {
			return m, err
		}
	}
	return m, nil
}

type bookingMeta struct {
	UserID        string
	ProviderID    string
	ServiceID     string
	Price         float64
	BookingFee    float64
	RequestedDate string
	RequestedTime string
	Notes         string
}

func (m bookingMeta) encode() (map[string]string, error) {
	out := map[string]string{
		metaKind:          kindBooking,
		metaUserID:        m.UserID,
		metaProviderID:    m.ProviderID,
		metaServiceID:     m.ServiceID,
		metaPrice:         money(m.Price),
		metaBookingFee:    money(m.BookingFee),
		metaRequestedDate: m.RequestedDate,
		metaRequestedTime: m.RequestedTime,
		metaNotes:         m.Notes,
	}
	if err := checkMetaSize(out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeBookingMeta(md map[string]string) (bookingMeta, error) {
	var m bookingMeta
	if md[metaKind] != kindBooking {
		return m, domain.ErrValidation("payment is not a booking checkout")
	}
	m.UserID = md[metaUserID]
	m.ProviderID = md[metaProviderID]
	m.ServiceID = md[metaServiceID]
	m.RequestedDate = md[metaRequestedDate]
	m.RequestedTime = md[metaRequestedTime]
	m.Notes = md[metaNotes]
	var err error
	if m.Price, err = parseMoney(md, metaPrice); err != nil {
		return m, err
	}
	if m.BookingFee, err = parseMoney(md, metaBookingFee); err != nil {
		return m, err
	}
	return m, nil
}

func parseMoney(md map[string]string, key string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(md[key]), 64)
	if err != nil {
		return 0, domain.ErrValidation("payment metadata " + key + " malformed")
	}
	return v, nil
}

func checkMetaSize(md map[string]string) error {
	for k, v := range md {
		if len(v) > maxMetaValue {
			return domain.ErrValidation(k + " too long for checkout")
		}
	}
	return nil
}
