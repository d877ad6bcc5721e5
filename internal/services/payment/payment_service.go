package payment

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/transaction-service/internal/domain"
	"github.com/kevin07696/transaction-service/internal/domain/ports"
	"github.com/kevin07696/transaction-service/pkg/observability"
)

// Service orchestrates the payment transaction lifecycle: it mutates the
// aggregate, performs the gateway call between registering an attempt or
// refund and reporting its outcome, and persists state plus events atomically.
type Service struct {
	db      ports.DBPort
	txnRepo ports.TransactionRepository
	gateway ports.PaymentGateway
	logger  ports.Logger
}

// NewService creates a new payment service
func NewService(
	db ports.DBPort,
	txnRepo ports.TransactionRepository,
	gateway ports.PaymentGateway,
	logger ports.Logger,
) *Service {
	return &Service{
		db:      db,
		txnRepo: txnRepo,
		gateway: gateway,
		logger:  logger,
	}
}

// CreatePaymentRequest carries the inputs for creating a payment transaction
type CreatePaymentRequest struct {
	OrganizationID     string
	Amount             domain.Money
	PaymentMethodType  domain.PaymentMethodType
	PaymentMethod      domain.PaymentMethodDetails
	GatewayID          string
	Description        *string
	Metadata           map[string]string
	ExternalOrderID    *string
	ExternalCustomerID *string
}

// CreatePayment creates a pending payment transaction and persists it together
// with its created event.
func (s *Service) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*domain.PaymentTransaction, error) {
	txn, err := domain.CreatePayment(domain.CreatePaymentParams{
		OrganizationID:     req.OrganizationID,
		Amount:             req.Amount,
		PaymentMethodType:  req.PaymentMethodType,
		PaymentMethod:      req.PaymentMethod,
		GatewayID:          req.GatewayID,
		Description:        req.Description,
		Metadata:           req.Metadata,
		ExternalOrderID:    req.ExternalOrderID,
		ExternalCustomerID: req.ExternalCustomerID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, txn); err != nil {
		return nil, err
	}

	observability.RecordTransactionCreated(req.OrganizationID, string(req.PaymentMethodType), req.GatewayID)
	s.logger.Info("payment transaction created",
		ports.String("transaction_id", txn.ID()),
		ports.String("organization_id", req.OrganizationID),
		ports.String("amount", req.Amount.String()),
		ports.String("gateway_id", req.GatewayID))

	return txn, nil
}

// ExecuteAttempt registers a new attempt, performs the gateway charge and
// reports the outcome back into the aggregate. finalAttempt controls whether a
// declined or errored attempt fails the transaction; retry scheduling itself
// lives with the caller.
func (s *Service) ExecuteAttempt(ctx context.Context, transactionID string, finalAttempt bool) (*domain.PaymentTransaction, error) {
	txn, err := s.txnRepo.FindByID(ctx, nil, transactionID)
	if err != nil {
		return nil, err
	}

	attemptID, err := txn.AddNewAttempt()
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, txn); err != nil {
		return nil, err
	}

	result, gwErr := s.gateway.Charge(ctx, &ports.ChargeRequest{
		TransactionID: txn.ID(),
		AttemptID:     attemptID,
		Amount:        txn.Amount().Amount(),
		Currency:      txn.Amount().Currency(),
		MethodType:    txn.PaymentMethodType(),
		Method:        txn.PaymentMethod(),
		Metadata:      txn.Metadata(),
	})

	outcome, err := s.applyChargeOutcome(txn, attemptID, result, gwErr, finalAttempt)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, txn); err != nil {
		return nil, err
	}

	observability.RecordAttemptOutcome(txn.OrganizationID(), txn.GatewayID(), outcome)
	s.logger.Info("payment attempt completed",
		ports.String("transaction_id", txn.ID()),
		ports.String("attempt_id", attemptID),
		ports.String("outcome", outcome),
		ports.String("status", string(txn.Status())),
		ports.Bool("final_attempt", finalAttempt))

	return txn, nil
}

func (s *Service) applyChargeOutcome(txn *domain.PaymentTransaction, attemptID string, result *ports.GatewayResult, gwErr error, finalAttempt bool) (string, error) {
	if gwErr != nil {
		if err := txn.MarkAttemptAsError(attemptID, gwErr.Error(), nil, finalAttempt); err != nil {
			return "", err
		}
		return string(domain.AttemptStatusError), nil
	}

	switch result.Outcome {
	case ports.GatewayOutcomeApproved:
		if err := txn.MarkAttemptAsSuccess(attemptID, result.RawResponse); err != nil {
			return "", err
		}
		return string(domain.AttemptStatusSuccess), nil
	case ports.GatewayOutcomeDeclined:
		if err := txn.MarkAttemptAsFailure(attemptID, result.Message, result.RawResponse, finalAttempt); err != nil {
			return "", err
		}
		return string(domain.AttemptStatusFailure), nil
	default:
		if err := txn.MarkAttemptAsError(attemptID, result.Message, result.RawResponse, finalAttempt); err != nil {
			return "", err
		}
		return string(domain.AttemptStatusError), nil
	}
}

// RequestRefundParams carries the inputs for requesting a refund
type RequestRefundParams struct {
	TransactionID string
	Amount        domain.Money
	Reason        string
	Description   *string
}

// RequestRefund registers a refund against the transaction, performs the
// gateway refund call and reports the outcome back into the aggregate.
func (s *Service) RequestRefund(ctx context.Context, params RequestRefundParams) (*domain.PaymentTransaction, error) {
	txn, err := s.txnRepo.FindByID(ctx, nil, params.TransactionID)
	if err != nil {
		return nil, err
	}

	refundID, err := txn.CreateRefund(params.Amount, params.Reason, params.Description)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, txn); err != nil {
		return nil, err
	}

	result, gwErr := s.gateway.Refund(ctx, &ports.GatewayRefundRequest{
		TransactionID: txn.ID(),
		RefundID:      refundID,
		Amount:        params.Amount.Amount(),
		Currency:      params.Amount.Currency(),
		Reason:        params.Reason,
	})

	outcome := string(domain.RefundStatusProcessed)
	switch {
	case gwErr != nil:
		if err := txn.MarkRefundAsFailed(refundID, gwErr.Error()); err != nil {
			return nil, err
		}
		outcome = string(domain.RefundStatusFailed)
	case result.Outcome == ports.GatewayOutcomeApproved:
		if err := txn.MarkRefundAsProcessed(refundID, result.Reference); err != nil {
			return nil, err
		}
	default:
		if err := txn.MarkRefundAsFailed(refundID, result.Message); err != nil {
			return nil, err
		}
		outcome = string(domain.RefundStatusFailed)
	}

	if err := s.save(ctx, txn); err != nil {
		return nil, err
	}

	observability.RecordRefundOutcome(txn.OrganizationID(), txn.GatewayID(), outcome)
	if outcome == string(domain.RefundStatusProcessed) {
		amount, _ := params.Amount.Amount().Float64()
		observability.RecordRefundAmount(txn.OrganizationID(), params.Amount.Currency(), amount)
	}

	s.logger.Info("refund completed",
		ports.String("transaction_id", txn.ID()),
		ports.String("refund_id", refundID),
		ports.String("outcome", outcome),
		ports.String("status", string(txn.Status())),
		ports.String("remaining", txn.RemainingRefundable().String()))

	return txn, nil
}

// GetTransaction loads a transaction aggregate by id
func (s *Service) GetTransaction(ctx context.Context, id string) (*domain.PaymentTransaction, error) {
	return s.txnRepo.FindByID(ctx, nil, id)
}

// save persists the aggregate and its drained events in one database transaction
func (s *Service) save(ctx context.Context, txn *domain.PaymentTransaction) error {
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.txnRepo.Save(ctx, tx, txn)
	})
	if err != nil {
		s.logger.Error("failed to persist transaction",
			ports.String("transaction_id", txn.ID()),
			ports.Err(err))
		return fmt.Errorf("save transaction: %w", err)
	}
	return nil
}
