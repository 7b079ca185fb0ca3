package services

import (
	"testing"
	"time"

	"coinwise/internal/pagination"
	"coinwise/internal/testutil"
)

func validGoalInput() GoalInput {
	now := time.Now()
	return GoalInput{
		Title:        "Emergency fund",
		Category:     "Savings",
		TargetAmount: 500000,
		StartDate:    now,
		EndDate:      now.AddDate(1, 0, 0),
		IsActive:     true,
	}
}

func TestCreateGoal(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)

		goal, err := svc.CreateGoal(user.ID, validGoalInput())
		testutil.AssertNoError(t, err)
		if goal.ID == "" {
			t.Error("expected goal ID to be set")
		}
		if goal.CurrentAmount != 0 {
			t.Errorf("expected current amount 0, got %d", goal.CurrentAmount)
		}
	})

	t.Run("zero_target", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)

		input := validGoalInput()
		input.TargetAmount = 0
		_, err := svc.CreateGoal(user.ID, input)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("end_before_start", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)

		input := validGoalInput()
		input.EndDate = input.StartDate.AddDate(0, 0, -1)
		_, err := svc.CreateGoal(user.ID, input)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetGoalByID(t *testing.T) {
	t.Run("other_users_goal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, other.ID, 100000)

		_, err := svc.GetGoalByID(user.ID, goal.ID)
		testutil.AssertAppError(t, err, "GOAL_NOT_FOUND")
	})
}

func TestUpdateGoal(t *testing.T) {
	t.Run("preserves_current_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, 100000)

		_, err := svc.AddContribution(user.ID, goal.ID, 25000, time.Now())
		testutil.AssertNoError(t, err)

		input := validGoalInput()
		input.TargetAmount = 200000
		updated, err := svc.UpdateGoal(user.ID, goal.ID, input)
		testutil.AssertNoError(t, err)
		if updated.TargetAmount != 200000 {
			t.Errorf("expected target 200000, got %d", updated.TargetAmount)
		}
		if updated.CurrentAmount != 25000 {
			t.Errorf("expected current amount preserved at 25000, got %d", updated.CurrentAmount)
		}
	})
}

func TestDeleteGoal(t *testing.T) {
	t.Run("removes_goal_and_contributions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, 100000)

		_, err := svc.AddContribution(user.ID, goal.ID, 10000, time.Now())
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.DeleteGoal(user.ID, goal.ID))

		_, err = svc.GetGoalByID(user.ID, goal.ID)
		testutil.AssertAppError(t, err, "GOAL_NOT_FOUND")

		_, err = svc.GetGoalContributions(user.ID, goal.ID, pagination.PageRequest{})
		testutil.AssertAppError(t, err, "GOAL_NOT_FOUND")
	})
}

func TestAddContribution(t *testing.T) {
	t.Run("advances_current_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, 100000)

		_, err := svc.AddContribution(user.ID, goal.ID, 10000, time.Now())
		testutil.AssertNoError(t, err)
		_, err = svc.AddContribution(user.ID, goal.ID, 15000, time.Now())
		testutil.AssertNoError(t, err)

		got, err := svc.GetGoalByID(user.ID, goal.ID)
		testutil.AssertNoError(t, err)
		if got.CurrentAmount != 25000 {
			t.Errorf("expected current amount 25000, got %d", got.CurrentAmount)
		}

		page, err := svc.GetGoalContributions(user.ID, goal.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 2 {
			t.Errorf("expected 2 contributions, got %d", page.TotalItems)
		}
	})

	t.Run("rejects_non_positive_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, 100000)

		_, err := svc.AddContribution(user.ID, goal.ID, 0, time.Now())
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_goal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.AddContribution(user.ID, "00000000-0000-0000-0000-000000000000", 1000, time.Now())
		testutil.AssertAppError(t, err, "GOAL_NOT_FOUND")
	})
}

func TestDeleteContribution(t *testing.T) {
	t.Run("rolls_back_current_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, 100000)

		contribution, err := svc.AddContribution(user.ID, goal.ID, 10000, time.Now())
		testutil.AssertNoError(t, err)
		_, err = svc.AddContribution(user.ID, goal.ID, 15000, time.Now())
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.DeleteContribution(user.ID, goal.ID, contribution.ID))

		got, err := svc.GetGoalByID(user.ID, goal.ID)
		testutil.AssertNoError(t, err)
		if got.CurrentAmount != 15000 {
			t.Errorf("expected current amount 15000 after delete, got %d", got.CurrentAmount)
		}

		page, err := svc.GetGoalContributions(user.ID, goal.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 contribution left, got %d", page.TotalItems)
		}
	})

	t.Run("unknown_contribution", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, 100000)

		err := svc.DeleteContribution(user.ID, goal.ID, "00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "CONTRIBUTION_NOT_FOUND")
	})

	t.Run("contribution_of_another_goal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, 100000)
		other := testutil.CreateTestGoal(t, db, user.ID, 50000)

		contribution, err := svc.AddContribution(user.ID, other.ID, 5000, time.Now())
		testutil.AssertNoError(t, err)

		err = svc.DeleteContribution(user.ID, goal.ID, contribution.ID)
		testutil.AssertAppError(t, err, "CONTRIBUTION_NOT_FOUND")
	})
}
