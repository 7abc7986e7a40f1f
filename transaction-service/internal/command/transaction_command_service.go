package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/events"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/fincoach/fincoach/shared/utils"
	"github.com/rs/zerolog/log"
)

type TransactionWriter interface {
	Create(ctx context.Context, transaction *models.Transaction) error
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// TransactionCommandService records transactions in Postgres and announces
// them on the transaction stream, where budget-service keeps the monthly ledger.
type TransactionCommandService struct {
	writeRepo TransactionWriter
	parser    *SMSParser
	publisher EventPublisher
	now       func() time.Time
}

func NewTransactionCommandService(writeRepo TransactionWriter, parser *SMSParser, publisher EventPublisher) *TransactionCommandService {
	return &TransactionCommandService{
		writeRepo: writeRepo,
		parser:    parser,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *TransactionCommandService) CreateTransaction(ctx context.Context, cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
	if cmd.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", errs.ErrInvalidInput)
	}
	if cmd.Type != models.TransactionExpense && cmd.Type != models.TransactionIncome {
		return nil, fmt.Errorf("%w: type must be Expense or Income", errs.ErrInvalidInput)
	}
	category := strings.TrimSpace(cmd.Category)
	if category == "" {
		category = models.DefaultCategory
	}

	transaction := &models.Transaction{
		ID:          utils.GenerateID(utils.TransactionIDPrefix),
		UserID:      cmd.UserID,
		Amount:      cmd.Amount,
		Category:    category,
		Type:        cmd.Type,
		Description: strings.TrimSpace(cmd.Description),
		CreatedAt:   s.now(),
	}
	if err := s.writeRepo.Create(ctx, transaction); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.TransactionEventsStream, events.TransactionCreated, events.TransactionCreatedEvent{
		TransactionID: transaction.ID,
		UserID:        transaction.UserID,
		Amount:        transaction.Amount,
		Category:      transaction.Category,
		Type:          transaction.Type,
		CreatedAt:     transaction.CreatedAt,
	}); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("transactionId", transaction.ID).Msg("Failed to publish transaction.created event")
	}
	return transaction, nil
}

// CreateTransactionFromSMS parses the SMS with the model and records the result
// like a manual entry.
func (s *TransactionCommandService) CreateTransactionFromSMS(ctx context.Context, cmd cqrs.CreateTransactionFromSMSCommand) (*models.Transaction, error) {
	parsed, err := s.parser.Parse(ctx, cmd.SMSText)
	if err != nil {
		return nil, err
	}
	return s.CreateTransaction(ctx, cqrs.CreateTransactionCommand{
		UserID:      cmd.UserID,
		Amount:      parsed.Amount,
		Category:    parsed.Category,
		Type:        parsed.Type,
		Description: parsed.Description,
	})
}
