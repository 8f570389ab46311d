// Package expense tracks the studio's own bills: rent, utilities, supplies
// and the like, paid or pending, recurring or one-off.
package expense

import (
	"context"
	"time"

	"github.com/jmfitness/studio-management/internal"
	expenseDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/expense"
)

type Category string

const (
	CategoryEnergia            Category = "energia"
	CategoryAgua               Category = "agua"
	CategoryAluguel            Category = "aluguel"
	CategoryInternet           Category = "internet"
	CategoryTelefone           Category = "telefone"
	CategoryManutencao         Category = "manutencao"
	CategoryMaterialLimpeza    Category = "material_limpeza"
	CategoryMaterialEscritorio Category = "material_escritorio"
	CategoryEquipamentos       Category = "equipamentos"
	CategoryMarketing          Category = "marketing"
	CategorySeguranca          Category = "seguranca"
	CategorySeguros            Category = "seguros"
	CategoryImpostos           Category = "impostos"
	CategorySalarios           Category = "salarios"
	CategoryOutros             Category = "outros"
)

var categoryLabels = map[Category]string{
	CategoryEnergia:            "Energia Elétrica",
	CategoryAgua:               "Água",
	CategoryAluguel:            "Aluguel",
	CategoryInternet:           "Internet",
	CategoryTelefone:           "Telefone",
	CategoryManutencao:         "Manutenção",
	CategoryMaterialLimpeza:    "Material de Limpeza",
	CategoryMaterialEscritorio: "Material de Escritório",
	CategoryEquipamentos:       "Equipamentos",
	CategoryMarketing:          "Marketing",
	CategorySeguranca:          "Segurança",
	CategorySeguros:            "Seguros",
	CategoryImpostos:           "Impostos",
	CategorySalarios:           "Salários",
	CategoryOutros:             "Outros",
}

// Categories in display order.
var Categories = []Category{
	CategoryEnergia, CategoryAgua, CategoryAluguel, CategoryInternet, CategoryTelefone,
	CategoryManutencao, CategoryMaterialLimpeza, CategoryMaterialEscritorio,
	CategoryEquipamentos, CategoryMarketing, CategorySeguranca, CategorySeguros,
	CategoryImpostos, CategorySalarios, CategoryOutros,
}

// Label returns the pt-BR name, or the raw value for an unknown category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

const (
	MaxAttachmentSize = 5 << 20
)

var allowedAttachmentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
}

var (
	ErrAttachmentMissing  = internal.NewValidationFieldError("file", "Selecione um arquivo para anexar")
	ErrAttachmentTooLarge = internal.NewValidationFieldError("file", "O arquivo deve ter no máximo 5MB")
	ErrAttachmentType     = internal.NewValidationFieldError("file", "Formato de arquivo não suportado. Use PDF, JPG, PNG ou WEBP")
	ErrStorageDisabled    = internal.NewValidationError("Armazenamento de arquivos não configurado", internal.ErrCodeAttachmentMissing)
)

// Filter narrows List. Nil fields match everything.
type Filter struct {
	Paid      *bool
	Recurrent *bool
	Category  *Category
}

// Totals is one paid/recurrent bucket of the overview query.
type Totals struct {
	Paid         bool
	Recurrent    bool
	Count        int64
	TotalInCents int64
}

type Repository interface {
	Insert(ctx context.Context, e *expenseDatamodel.Expense) error
	Get(ctx context.Context, id string) (*expenseDatamodel.Expense, error)
	List(ctx context.Context, f Filter) ([]expenseDatamodel.Expense, error)
	SetPaid(ctx context.Context, id string, paid bool, paymentDate *time.Time) error
	SetAttachment(ctx context.Context, id string, url *string) error
	Delete(ctx context.Context, id string) error
	Totals(ctx context.Context) ([]Totals, error)
}
