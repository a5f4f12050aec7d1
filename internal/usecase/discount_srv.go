package usecase

import (
	"context"
	"fmt"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/internal/data/repository"
	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/dto/response"

	"go.uber.org/zap"
)

type DiscountService interface {
	FindBestDiscount(ctx context.Context, req *request.BestDiscountRequest) (*response.BestDiscountResponse, error)
	GetAllDiscountsForPlan(ctx context.Context, req *request.PlanDiscountsRequest) (*response.PlanDiscountsResponse, error)
}

type discountService struct {
	repo  *repository.Repository
	clock func() time.Time
	log   *zap.Logger
}

func NewDiscountService(repo *repository.Repository, log *zap.Logger) DiscountService {
	return &discountService{
		repo:  repo,
		clock: time.Now,
		log:   log.With(zap.String("service", "discount")),
	}
}

func (s *discountService) FindBestDiscount(ctx context.Context, req *request.BestDiscountRequest) (*response.BestDiscountResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	plan, err := findPlan(ctx, s.repo, req.PlanID)
	if err != nil {
		return nil, err
	}

	menteeID := req.MenteeID
	quote, ok, err := bestDiscountFor(ctx, s.repo, plan.Charge, &menteeID, s.clock())
	if err != nil {
		return nil, err
	}

	resp := &response.BestDiscountResponse{PlanID: plan.ID}
	if ok {
		id, name := quote.Discount.ID, quote.Discount.Name
		resp.DiscountID = &id
		resp.DiscountName = &name
		resp.EstimatedSavings = quote.Savings
	}

	return resp, nil
}

func (s *discountService) GetAllDiscountsForPlan(ctx context.Context, req *request.PlanDiscountsRequest) (*response.PlanDiscountsResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	plan, err := findPlan(ctx, s.repo, req.PlanID)
	if err != nil {
		return nil, err
	}

	eligible, err := eligibleDiscounts(ctx, s.repo, req.MenteeID, s.clock())
	if err != nil {
		return nil, err
	}

	quotes := rankDiscounts(plan.Charge, eligible)
	best, hasBest := bestQuote(plan.Charge, eligible)

	items := make([]response.DiscountResponse, 0, len(quotes))
	for _, q := range quotes {
		items = append(items, response.DiscountResponse{
			ID:               q.Discount.ID,
			Name:             q.Discount.Name,
			Type:             q.Discount.Type,
			Value:            q.Discount.Value,
			EndDate:          q.Discount.EndDate,
			EstimatedSavings: q.Savings,
			FinalAmount:      plan.Charge - q.Savings,
			IsBest:           hasBest && q.Discount.ID == best.Discount.ID,
		})
	}

	return &response.PlanDiscountsResponse{
		PlanID:     plan.ID,
		PlanCharge: plan.Charge,
		Discounts:  items,
	}, nil
}

// eligibleDiscounts lists discounts usable at now. With a mentee, discounts
// that mentee already redeemed are dropped.
func eligibleDiscounts(ctx context.Context, repo *repository.Repository, menteeID *int64, now time.Time) ([]*entity.Discount, error) {
	usable, err := repo.Discount.FindUsable(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("find usable discounts: %w", err)
	}

	var used map[int64]struct{}
	if menteeID != nil {
		used, err = repo.Booking.UsedDiscountIDs(ctx, *menteeID)
		if err != nil {
			return nil, fmt.Errorf("find redeemed discounts: %w", err)
		}
	}

	eligible := make([]*entity.Discount, 0, len(usable))
	for _, d := range usable {
		if !d.IsUsable(now) {
			continue
		}
		if _, redeemed := used[d.ID]; redeemed {
			continue
		}
		eligible = append(eligible, d)
	}
	return eligible, nil
}

func bestDiscountFor(ctx context.Context, repo *repository.Repository, charge entity.Money, menteeID *int64, now time.Time) (Quote, bool, error) {
	eligible, err := eligibleDiscounts(ctx, repo, menteeID, now)
	if err != nil {
		return Quote{}, false, err
	}
	q, ok := bestQuote(charge, eligible)
	return q, ok, nil
}

// checkDiscount confirms an explicitly requested discount for menteeID.
func checkDiscount(ctx context.Context, repo *repository.Repository, discountID, menteeID int64, now time.Time) (*entity.Discount, error) {
	d, err := repo.Discount.FindByID(ctx, discountID)
	if err != nil {
		return nil, fmt.Errorf("find discount: %w", err)
	}
	if d == nil || !d.IsUsable(now) {
		return nil, fmt.Errorf("discount %d: %w", discountID, ErrInvalidDiscount)
	}

	used, err := repo.Booking.HasUsedDiscount(ctx, menteeID, discountID)
	if err != nil {
		return nil, fmt.Errorf("check discount redemption: %w", err)
	}
	if used {
		return nil, fmt.Errorf("discount %d already redeemed: %w", discountID, ErrInvalidDiscount)
	}

	return d, nil
}

func findPlan(ctx context.Context, repo *repository.Repository, planID int64) (*entity.Plan, error) {
	plan, err := repo.Plan.FindByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("plan %d: %w", planID, ErrNotFound)
	}
	return plan, nil
}
