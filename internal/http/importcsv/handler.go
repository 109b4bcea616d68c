package importcsv

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kittyapp/kitty/internal/categorize"
	"github.com/kittyapp/kitty/internal/event"
	"github.com/kittyapp/kitty/internal/expense"
	"github.com/kittyapp/kitty/internal/http/middleware"
	"github.com/kittyapp/kitty/internal/importer"
	"github.com/kittyapp/kitty/internal/portion"
	"github.com/kittyapp/kitty/internal/user"
)

// Handler turns an uploaded expense sheet into ledger entries for the
// event in the URL. Each imported expense is split evenly across the
// event's current members.
type Handler struct {
	events    *event.Service
	expenses  *expense.Service
	importSvc *importer.Service
	hints     *categorize.Service
}

func NewHandler(events *event.Service, expenses *expense.Service, importSvc *importer.Service, hints *categorize.Service) *Handler {
	return &Handler{
		events:    events,
		expenses:  expenses,
		importSvc: importSvc,
		hints:     hints,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importSheet)
}

type importedExpenseResponse struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type importSuccessResponse struct {
	Imported int                       `json:"imported"`
	Expenses []importedExpenseResponse `json:"expenses"`
}

func (h *Handler) importSheet(w http.ResponseWriter, r *http.Request) {
	e, ok := h.memberEvent(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	format := importer.Format(r.FormValue("format"))
	if format == "" {
		format = importer.FormatSheet
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	entries, err := h.importSvc.Import(format, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	members, err := h.events.Members(r.Context(), e.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	shares := evenShares(members)

	resp := importSuccessResponse{
		Expenses: make([]importedExpenseResponse, 0, len(entries)),
	}

	for _, entry := range entries {
		category := entry.Category
		if category == "" {
			if suggested, err := h.hints.Suggest(r.Context(), entry.Name); err == nil {
				category = suggested
			}
		}

		x, err := h.expenses.Create(r.Context(), expense.CreateParams{
			EventID:         e.ID,
			Name:            entry.Name,
			Amount:          entry.Amount,
			PortionType:     portion.TypePercentage,
			NewCategoryName: category,
			PurchasedAt:     entry.PurchasedAt,
			Shares:          shares,
		})
		if err != nil {
			http.Error(w, "import failed at "+entry.Name+": "+err.Error(), http.StatusBadRequest)
			return
		}

		resp.Expenses = append(resp.Expenses, importedExpenseResponse{
			ID:     x.ID,
			Name:   x.Name,
			Amount: x.Amount,
		})
	}

	resp.Imported = len(resp.Expenses)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// evenShares assigns each member an equal percentage of the expense.
// Percentages are rounded to two decimals, so with three members the
// split is 33.33 each rather than an exact third.
func evenShares(members []*user.User) []expense.Share {
	if len(members) == 0 {
		return nil
	}

	per := decimal.NewFromInt(100).
		Div(decimal.NewFromInt(int64(len(members)))).
		Round(2)

	shares := make([]expense.Share, len(members))
	for i, m := range members {
		shares[i] = expense.Share{UserID: m.ID, Portion: &per}
	}

	return shares
}

func (h *Handler) memberEvent(w http.ResponseWriter, r *http.Request) (*event.Event, bool) {
	e, err := h.events.BySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			http.Error(w, "event not found", http.StatusNotFound)
			return nil, false
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return nil, false
	}

	member, err := h.events.IsMember(r.Context(), e.ID, middleware.UserID(r.Context()))
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}

	if !member {
		http.Error(w, "event not found", http.StatusNotFound)
		return nil, false
	}

	return e, true
}
