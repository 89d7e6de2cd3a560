package service

import (
	"context" // Request-scoped cancellation
	"errors"  // Error matching
	"fmt"     // Error wrapping
	"strconv" // Cache key building
	"strings" // Retryable error detection
	"time"    // Retry backoff

	"marketplace/internal/domain"     // Domain models and errors
	"marketplace/internal/repository" // Generic entity repository
	"marketplace/internal/utils"      // Cache helpers

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
	"gorm.io/gorm/clause"          // Row locking clauses
)

// Bounded retry for lock contention. Business-rule failures never retry.
const (
	maxPurchaseAttempts = 5                     // Attempts before surfacing ErrConflict
	retryBackoff        = 20 * time.Millisecond // Base backoff between attempts
)

// PurchaseService runs the purchase workflow: it validates the buyer,
// moves funds between the buyer and merchant wallets, and records a
// transaction, all in one database transaction.
type PurchaseService struct {
	db           *gorm.DB                                   // Persistence handle, injected
	rdb          *redis.Client                              // Cache to invalidate after commit, may be nil
	transactions *repository.Repository[domain.Transaction] // Insert-only transaction store
}

// NewPurchaseService creates a PurchaseService with its dependencies
func NewPurchaseService(db *gorm.DB, rdb *redis.Client) *PurchaseService {
	return &PurchaseService{
		db:           db,
		rdb:          rdb,
		transactions: repository.New[domain.Transaction](db),
	}
}

// Purchase buys the item for the given principal and returns the recorded
// transaction. Only customers may purchase. The two wallet updates and the
// transaction insert commit as one unit; any failure before commit leaves
// every store unchanged.
func (s *PurchaseService) Purchase(ctx context.Context, principal domain.Principal, itemID uint, description string) (*domain.Transaction, error) {
	// Authorization: only customers may purchase
	if principal.Role != domain.RoleCustomer {
		return nil, fmt.Errorf("only customers may purchase: %w", domain.ErrForbidden)
	}

	var record *domain.Transaction
	var err error
	for attempt := 1; attempt <= maxPurchaseAttempts; attempt++ {
		record, err = s.attempt(ctx, principal, itemID, description)
		if err == nil || !isRetryable(err) {
			break // Success or a non-retryable business failure
		}
		// Lock contention: back off and retry unless the caller gave up
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}
	if err != nil {
		if isRetryable(err) {
			// Retries exhausted on storage conflicts
			err = fmt.Errorf("purchase aborted after %d attempts: %w", maxPurchaseAttempts, domain.ErrConflict)
		}
		// Log invariant violations, never silently ignore them
		if errors.Is(err, domain.ErrInvariantViolation) || errors.Is(err, domain.ErrConflict) {
			logrus.WithFields(logrus.Fields{
				"user_id": principal.ID, // Buyer user ID
				"item_id": itemID,       // Requested item
				"error":   err.Error(),  // Failure detail
			}).Error("Purchase failed")
		}
		return nil, err
	}

	// Log successful purchase
	logrus.WithFields(logrus.Fields{
		"user_id":     principal.ID,                    // Buyer user ID
		"item_id":     record.ItemID,                   // Purchased item
		"price":       record.Price,                    // Price charged
		"merchant_id": record.MerchantID,               // Selling merchant
		"customer_id": record.CustomerID,               // Buying customer profile
		"timestamp":   time.Now().Format(time.RFC3339), // Current timestamp
	}).Info("Purchase transaction")

	// Invalidate read caches after the commit, never inside the transaction
	s.invalidate(ctx, principal.ID, record)
	return record, nil
}

// attempt runs one unit of work. Both wallet rows are locked FOR UPDATE in
// ascending owner order so two concurrent purchases touching the same
// wallets cannot deadlock or interleave their read-modify-write.
func (s *PurchaseService) attempt(ctx context.Context, principal domain.Principal, itemID uint, description string) (*domain.Transaction, error) {
	var record domain.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Resolve the item
		var item domain.Item
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("item %d: %w", itemID, domain.ErrNotFound)
			}
			return err
		}

		// Resolve the selling merchant to find its owning user
		var merchant domain.Merchant
		if err := tx.First(&merchant, item.MerchantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("item %d references missing merchant %d: %w", item.ID, item.MerchantID, domain.ErrInvariantViolation)
			}
			return err
		}

		// Lock both wallets in ascending owner order
		merchantWallet, buyerWallet, err := lockWallets(tx, merchant.UserID, principal.ID)
		if err != nil {
			return err
		}

		// Resolve the buyer's customer profile for the transaction stamp
		var customer domain.Customer
		if err := tx.Where("user_id = ?", principal.ID).First(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %d has no customer profile: %w", principal.ID, domain.ErrInvariantViolation)
			}
			return err
		}

		// Funds check before any mutation
		if buyerWallet.Balance < item.Price {
			return fmt.Errorf("balance %.2f below price %.2f: %w", buyerWallet.Balance, item.Price, domain.ErrInsufficientFunds)
		}

		// Apply the transfer: credit merchant, debit buyer
		if err := tx.Model(&domain.Wallet{}).Where("id = ?", merchantWallet.ID).
			Update("balance", gorm.Expr("balance + ?", item.Price)).Error; err != nil {
			return err // Return error to rollback
		}
		if err := tx.Model(&domain.Wallet{}).Where("id = ?", buyerWallet.ID).
			Update("balance", gorm.Expr("balance - ?", item.Price)).Error; err != nil {
			return err // Return error to rollback
		}

		// Record the transaction with the price snapshot
		record = domain.Transaction{
			ItemID:      item.ID,         // Purchased item
			Description: description,     // Buyer's note
			Price:       item.Price,      // Snapshot, immune to later item edits
			MerchantID:  item.MerchantID, // Selling merchant
			CustomerID:  customer.ID,     // Buying customer profile
		}
		return s.transactions.WithTx(tx).Create(ctx, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// lockWallets acquires FOR UPDATE locks on the wallets of both users,
// always in ascending user id order, and returns them as (merchant, buyer)
func lockWallets(tx *gorm.DB, merchantUserID, buyerUserID uint) (*domain.Wallet, *domain.Wallet, error) {
	order := []uint{merchantUserID, buyerUserID}
	if buyerUserID < merchantUserID {
		order[0], order[1] = buyerUserID, merchantUserID
	}
	// SQLite (used in tests) has no FOR UPDATE; it serializes writers at the
	// database level, so the lock clause applies on MySQL only
	locked := tx
	if tx.Dialector.Name() == "mysql" {
		locked = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	wallets := make(map[uint]*domain.Wallet, 2)
	for _, userID := range order {
		var w domain.Wallet
		err := locked.Where("user_id = ?", userID).First(&w).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Every user owns exactly one wallet; a missing row is corruption
				return nil, nil, fmt.Errorf("user %d has no wallet: %w", userID, domain.ErrInvariantViolation)
			}
			return nil, nil, err
		}
		wallets[userID] = &w
	}
	return wallets[merchantUserID], wallets[buyerUserID], nil
}

// invalidate drops the cached wallet views of both parties and the buyer's
// cached purchase history pages
func (s *PurchaseService) invalidate(ctx context.Context, buyerUserID uint, record *domain.Transaction) {
	if s.rdb == nil {
		return // Caching disabled
	}
	var merchant domain.Merchant
	if err := s.db.WithContext(ctx).First(&merchant, record.MerchantID).Error; err == nil {
		_ = utils.DeleteCache(ctx, s.rdb, "wallet:user:"+strconv.Itoa(int(merchant.UserID)))
	}
	_ = utils.DeleteCache(ctx, s.rdb, "wallet:user:"+strconv.Itoa(int(buyerUserID)))
	_ = utils.DeleteCacheByPrefix(ctx, s.rdb, "txhistory:customer:"+strconv.Itoa(int(record.CustomerID)))
}

// isRetryable reports whether err looks like transient lock contention.
// MySQL surfaces deadlocks and lock-wait timeouts, SQLite (used in tests)
// reports a busy database.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "lock wait timeout") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
