package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"pricetracker/internal/client"
	"pricetracker/internal/database"
	"pricetracker/internal/misc"
	"pricetracker/internal/model"
)

// cleanProductURL drops the query and fragment, which carry tracking parameters only.
func cleanProductURL(urlStr string) (string, error) {
	parsedURL, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil {
		return "", errors.Wrapf(err, "invalid url: %s", urlStr)
	}
	cleanURL := "https://" + strings.ToLower(parsedURL.Host) + strings.TrimSuffix(parsedURL.Path, "/")
	if !client.IsValidTokopediaURL(cleanURL) {
		return "", errors.Errorf("invalid Tokopedia product url: %s", cleanURL)
	}
	return cleanURL, nil
}

type itemResponse struct {
	model.TrackedItem
	CurrentPriceText string `json:"current_price_text"`
	TargetPriceText  string `json:"target_price_text,omitempty"`
}

func newItemResponse(i model.TrackedItem) itemResponse {
	resp := itemResponse{TrackedItem: i, CurrentPriceText: misc.FormatIDR(i.CurrentPrice)}
	if i.HasTarget() {
		resp.TargetPriceText = misc.FormatIDR(*i.TargetPrice)
	}
	return resp
}

func validTargetPrice(target *int64) bool {
	return target == nil || *target > 0
}

// fetchErrorStatus maps a failed snapshot fetch to the status returned to the caller.
func fetchErrorStatus(fe *model.FetchError) int {
	switch fe.Kind {
	case model.FetchErrorInvalidURL:
		return http.StatusBadRequest
	case model.FetchErrorParse:
		return http.StatusUnprocessableEntity
	case model.FetchErrorRateLimited:
		return http.StatusServiceUnavailable
	case model.FetchErrorTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s Server) itemAdd() http.HandlerFunc {
	type request struct {
		URL         string `json:"url"`
		TargetPrice *int64 `json:"target_price"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("itemAdd: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		tid := getTraceContext(r.Context()).traceID

		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("itemAdd: Error decoding JSON, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if !validTargetPrice(req.TargetPrice) {
			http.Error(w, "Invalid target_price", http.StatusBadRequest)
			return
		}
		cleanURL, err := cleanProductURL(req.URL)
		if err != nil {
			s.Logger.Debugf("itemAdd: Bad url: %s, err: %v, TraceID: %s", req.URL, err, tid)
			http.Error(w, "Invalid Tokopedia URL format", http.StatusBadRequest)
			return
		}

		n, err := s.DB.ItemCountByUser(r.Context(), uc.user.ID)
		if err != nil {
			s.Logger.Errorf("itemAdd: Error counting Items, UserID: %s, err: %v, TraceID: %s", uc.user.ID, err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if limit := s.maxItems(uc.user); n >= limit {
			s.Logger.Debugf("itemAdd: Failed to add item, Items are limited to %d for UserID: %s, TraceID: %s",
				limit, uc.user.ID, tid)
			http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
			return
		}

		snapshot, err := s.Client.GetSnapshot(r.Context(), cleanURL)
		if err != nil {
			fe := model.AsFetchError(err, cleanURL)
			s.Logger.Warnf("itemAdd: Error getting snapshot for url: %s, err: %v, TraceID: %s", cleanURL, fe, tid)
			http.Error(w, fe.Message, fetchErrorStatus(fe))
			return
		}

		now := s.now()
		i, err := s.DB.ItemInsert(r.Context(), model.TrackedItem{
			URL:          cleanURL,
			Title:        snapshot.Title,
			CurrentPrice: snapshot.Price,
			TargetPrice:  req.TargetPrice,
			LastChecked:  now,
			UserID:       uc.user.ID,
			CreatedAt:    now,
		})
		if err != nil {
			s.Logger.Errorf("itemAdd: Error inserting Item, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		ih := model.ItemHistory{ItemID: i.ID, Price: snapshot.Price, Timestamp: now}
		if err = s.DB.ItemHistoryInsert(r.Context(), ih); err != nil {
			s.Logger.Errorf("itemAdd: Error inserting ItemHistory, err: %v, TraceID: %s", err, tid)
		}

		s.Logger.Infof("itemAdd: UserID: %s added Item ShortID: %s, price: %d, TraceID: %s",
			uc.user.ID, i.ShortID, i.CurrentPrice, tid)
		s.writeJsonResponse(w, newItemResponse(i), http.StatusCreated)
	}
}

// findUserItem writes the error response itself and reports whether the item was found.
func (s Server) findUserItem(w http.ResponseWriter, r *http.Request, funcName string, userID string, shortID string) (model.TrackedItem, bool) {
	i, err := s.DB.ItemFindByShortID(r.Context(), userID, strings.ToUpper(strings.TrimSpace(shortID)))
	if err != nil {
		if errors.Is(err, database.ErrItemNotFound) {
			s.Logger.Debugf("%s: Item not found, ShortID: %s, UserID: %s", funcName, shortID, userID)
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return i, false
		}
		s.Logger.Errorf("%s: Error finding Item, ShortID: %s, UserID: %s, err: %v", funcName, shortID, userID, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return i, false
	}
	return i, true
}

func (s Server) itemUpdate() http.HandlerFunc {
	type request struct {
		ShortID     string `json:"short_id"`
		TargetPrice *int64 `json:"target_price"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("itemUpdate: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("itemUpdate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if !validTargetPrice(req.TargetPrice) {
			http.Error(w, "Invalid target_price", http.StatusBadRequest)
			return
		}

		i, ok := s.findUserItem(w, r, "itemUpdate", uc.user.ID, req.ShortID)
		if !ok {
			return
		}
		if err = s.DB.ItemTargetPriceUpdate(r.Context(), i.ID, req.TargetPrice); err != nil {
			if errors.Is(err, database.ErrItemNotFound) {
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("itemUpdate: Error updating target price, ItemID: %s, err: %v", i.ID.Hex(), err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		i.TargetPrice = req.TargetPrice
		s.writeJsonResponse(w, newItemResponse(i), http.StatusOK)
	}
}

func (s Server) itemRemove() http.HandlerFunc {
	type request struct {
		ShortID string `json:"short_id"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("itemRemove: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("itemRemove: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		i, ok := s.findUserItem(w, r, "itemRemove", uc.user.ID, req.ShortID)
		if !ok {
			return
		}
		if err = s.DB.ItemDelete(r.Context(), i.ID); err != nil && !errors.Is(err, database.ErrItemNotFound) {
			s.Logger.Errorf("itemRemove: Error deleting Item, ItemID: %s, err: %v", i.ID.Hex(), err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("itemRemove: UserID: %s removed Item ShortID: %s", uc.user.ID, i.ShortID)
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) itemGetAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("itemGetAll: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		is, err := s.DB.ItemsFindByUser(r.Context(), uc.user.ID)
		if err != nil {
			s.Logger.Errorf("itemGetAll: Error getting Items, UserID: %s, err: %v", uc.user.ID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		resp := make([]itemResponse, 0, len(is))
		for _, i := range is {
			resp = append(resp, newItemResponse(i))
		}
		s.writeJsonResponse(w, resp, http.StatusOK)
	}
}

func (s Server) itemHistory() http.HandlerFunc {
	type itemHistory struct {
		Price     int64     `json:"pr"`
		Timestamp time.Time `json:"ts"`
	}
	type response struct {
		ShortID string        `json:"short_id"`
		Stats   *priceStats   `json:"stats,omitempty"`
		History []itemHistory `json:"history"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("itemHistory: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		i, ok := s.findUserItem(w, r, "itemHistory", uc.user.ID, mux.Vars(r)["shortID"])
		if !ok {
			return
		}
		ihs, err := s.DB.ItemHistoryFindAll(r.Context(), i.ID)
		if err != nil {
			s.Logger.Errorf("itemHistory: Error getting ItemHistory, ItemID: %s, err: %v", i.ID.Hex(), err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		resp := response{ShortID: i.ShortID, History: make([]itemHistory, 0, len(ihs))}
		for n, ih := range ihs {
			if n == 0 {
				resp.Stats = &priceStats{Lowest: ih.Price, Highest: ih.Price}
			}
			resp.Stats.Lowest = misc.Min(resp.Stats.Lowest, ih.Price)
			resp.Stats.Highest = misc.Max(resp.Stats.Highest, ih.Price)
			resp.History = append(resp.History, itemHistory{Price: ih.Price, Timestamp: ih.Timestamp.UTC()})
		}
		s.writeJsonResponse(w, resp, http.StatusOK)
	}
}

type priceStats struct {
	Lowest  int64 `json:"lowest"`
	Highest int64 `json:"highest"`
}
