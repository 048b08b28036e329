package links

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/3Eeeecho/go-linktrack/internal/models"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/xerr"
	"github.com/3Eeeecho/go-linktrack/internal/repositories"
	"github.com/3Eeeecho/go-linktrack/internal/services/audit"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (*linkService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.TrackedLink{},
		&models.LinkRecipient{},
		&models.SharePolicy{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	s := &linkService{
		linkRepo:   repositories.NewLinkRepository(db),
		policyRepo: repositories.NewPolicyRepository(db, nil),
		recorder:   audit.NewRecorder(repositories.NewAuditLogRepository(db)),
		now:        func() time.Time { return testNow },
	}
	return s, db
}

func setPolicy(t *testing.T, db *gorm.DB, internal, external int, allowPublic bool) {
	t.Helper()
	pol := &models.SharePolicy{
		MaxDurationInternal: internal,
		MaxDurationExternal: external,
		AllowPublicSharing:  allowPublic,
	}
	if err := db.Create(pol).Error; err != nil {
		t.Fatalf("failed to seed policy: %v", err)
	}
}

var (
	regularUser = &models.User{ID: 1, Email: "user@example.com", Role: models.RoleUser}
	otherUser   = &models.User{ID: 2, Email: "other@example.com", Role: models.RoleUser}
	adminUser   = &models.User{ID: 3, Email: "admin@example.com", Role: models.RoleAdmin}
)

func trackRequest(url string) *TrackLinkRequest {
	return &TrackLinkRequest{
		FileName:   "q3.xlsx",
		FilePath:   "/finance/q3.xlsx",
		LinkURL:    url,
		Visibility: models.VisibilityRestricted,
		Recipients: []RecipientInput{
			{Identifier: "alice@example.com", Permission: models.PermissionView},
		},
	}
}

func TestLinkService_TrackLink(t *testing.T) {
	s, db := setupService(t)
	setPolicy(t, db, 90, 30, false)
	ctx := context.Background()

	t.Run("未指定过期时间时取策略上限", func(t *testing.T) {
		link, err := s.TrackLink(ctx, regularUser, trackRequest("https://s.example.com/l/default"))
		if err != nil {
			t.Fatalf("TrackLink() error = %v", err)
		}
		want := testNow.AddDate(0, 0, 90)
		if link.ExpiresAt == nil || !link.ExpiresAt.Equal(want) {
			t.Errorf("expected expiresAt %v, got %v", want, link.ExpiresAt)
		}
		if link.OwnerID != regularUser.ID {
			t.Errorf("expected ownerID %d, got %d", regularUser.ID, link.OwnerID)
		}
		if len(link.FileIdentity) != 64 {
			t.Errorf("fileIdentity must be a sha256 hex digest, got %q", link.FileIdentity)
		}
	})

	t.Run("重复跟踪同一 linkURL 被拒绝", func(t *testing.T) {
		req := trackRequest("https://s.example.com/l/dup")
		if _, err := s.TrackLink(ctx, regularUser, req); err != nil {
			t.Fatalf("first TrackLink() error = %v", err)
		}
		_, err := s.TrackLink(ctx, otherUser, req)
		if !errors.Is(err, xerr.ErrLinkAlreadyTracked) {
			t.Errorf("expected ErrLinkAlreadyTracked, got %v", err)
		}
	})

	t.Run("策略禁止时公开链接被拒绝", func(t *testing.T) {
		req := trackRequest("https://s.example.com/l/pub")
		req.Visibility = models.VisibilityPublic
		_, err := s.TrackLink(ctx, regularUser, req)
		if !errors.Is(err, xerr.ErrPublicSharingDisabled) {
			t.Errorf("expected ErrPublicSharingDisabled, got %v", err)
		}
	})

	t.Run("超出上限的过期时间被拒绝", func(t *testing.T) {
		req := trackRequest("https://s.example.com/l/toolong")
		tooLate := testNow.AddDate(0, 0, 91)
		req.ExpiresAt = &tooLate
		_, err := s.TrackLink(ctx, regularUser, req)
		if !errors.Is(err, xerr.ErrExpiresExceedsLimit) {
			t.Errorf("expected ErrExpiresExceedsLimit, got %v", err)
		}
	})

	t.Run("跟踪成功后写审计记录", func(t *testing.T) {
		var count int64
		db.Model(&models.AuditLog{}).Where("action = ?", models.AuditActionLinkTracked).Count(&count)
		if count == 0 {
			t.Error("expected link.tracked audit entries")
		}
	})
}

func TestLinkService_GetLinkAccessControl(t *testing.T) {
	s, db := setupService(t)
	setPolicy(t, db, 90, 30, false)
	ctx := context.Background()

	link, err := s.TrackLink(ctx, regularUser, trackRequest("https://s.example.com/l/acl"))
	if err != nil {
		t.Fatalf("TrackLink() error = %v", err)
	}

	t.Run("所有者可读取", func(t *testing.T) {
		got, err := s.GetLink(ctx, regularUser, link.ID)
		if err != nil {
			t.Fatalf("GetLink() error = %v", err)
		}
		if got.ID != link.ID {
			t.Errorf("expected link %d, got %d", link.ID, got.ID)
		}
	})

	t.Run("管理员可读取", func(t *testing.T) {
		if _, err := s.GetLink(ctx, adminUser, link.ID); err != nil {
			t.Fatalf("GetLink() error = %v", err)
		}
	})

	t.Run("其他用户得到与不存在一致的错误", func(t *testing.T) {
		_, errForbidden := s.GetLink(ctx, otherUser, link.ID)
		_, errMissing := s.GetLink(ctx, otherUser, 99999)
		if !errors.Is(errForbidden, xerr.ErrLinkNotFound) {
			t.Errorf("expected ErrLinkNotFound for foreign link, got %v", errForbidden)
		}
		if !errors.Is(errMissing, xerr.ErrLinkNotFound) {
			t.Errorf("expected ErrLinkNotFound for missing link, got %v", errMissing)
		}
		// 越权和不存在必须无法区分
		if errForbidden.Error() != errMissing.Error() {
			t.Error("forbidden and missing must be indistinguishable")
		}
	})
}

func TestLinkService_ListLinksScoping(t *testing.T) {
	s, db := setupService(t)
	setPolicy(t, db, 90, 30, false)
	ctx := context.Background()

	for i, owner := range []*models.User{regularUser, regularUser, otherUser} {
		req := trackRequest("https://s.example.com/l/list" + string(rune('a'+i)))
		if _, err := s.TrackLink(ctx, owner, req); err != nil {
			t.Fatalf("TrackLink() error = %v", err)
		}
	}

	t.Run("普通用户只看到自己的", func(t *testing.T) {
		links, total, err := s.ListLinks(ctx, regularUser, 1, 10)
		if err != nil {
			t.Fatalf("ListLinks() error = %v", err)
		}
		if total != 2 {
			t.Errorf("expected total 2, got %d", total)
		}
		for _, l := range links {
			if l.OwnerID != regularUser.ID {
				t.Errorf("leaked foreign link owned by %d", l.OwnerID)
			}
		}
	})

	t.Run("管理员看到全量", func(t *testing.T) {
		_, total, err := s.ListLinks(ctx, adminUser, 1, 10)
		if err != nil {
			t.Fatalf("ListLinks() error = %v", err)
		}
		if total != 3 {
			t.Errorf("expected total 3, got %d", total)
		}
	})
}

func TestLinkService_UpdateLink(t *testing.T) {
	s, db := setupService(t)
	setPolicy(t, db, 90, 30, true)
	ctx := context.Background()

	t.Run("只改文件名不触发策略校验", func(t *testing.T) {
		link, err := s.TrackLink(ctx, regularUser, trackRequest("https://s.example.com/l/rename"))
		if err != nil {
			t.Fatalf("TrackLink() error = %v", err)
		}
		before := *link.ExpiresAt

		name := "renamed.xlsx"
		updated, err := s.UpdateLink(ctx, regularUser, link.ID, &UpdateLinkRequest{FileName: &name})
		if err != nil {
			t.Fatalf("UpdateLink() error = %v", err)
		}
		if updated.FileName != "renamed.xlsx" {
			t.Errorf("fileName not updated: %s", updated.FileName)
		}
		if !updated.ExpiresAt.Equal(before) {
			t.Errorf("expiresAt must not change on rename, %v -> %v", before, updated.ExpiresAt)
		}
	})

	t.Run("改可见性触发重新校验", func(t *testing.T) {
		req := trackRequest("https://s.example.com/l/vis")
		in60 := testNow.AddDate(0, 0, 60)
		req.ExpiresAt = &in60
		link, err := s.TrackLink(ctx, regularUser, req)
		if err != nil {
			t.Fatalf("TrackLink() error = %v", err)
		}

		// 60 天在 internal 上限内但超出 external 上限，切到 public 必须被拒绝
		pub := models.VisibilityPublic
		_, err = s.UpdateLink(ctx, regularUser, link.ID, &UpdateLinkRequest{Visibility: &pub})
		if !errors.Is(err, xerr.ErrExpiresExceedsLimit) {
			t.Errorf("expected ErrExpiresExceedsLimit, got %v", err)
		}
	})

	t.Run("提供收件人时整体替换", func(t *testing.T) {
		link, err := s.TrackLink(ctx, regularUser, trackRequest("https://s.example.com/l/recip"))
		if err != nil {
			t.Fatalf("TrackLink() error = %v", err)
		}

		newSet := []RecipientInput{
			{Identifier: "carol@example.com", Permission: models.PermissionEdit},
			{Identifier: "dave@example.com", Permission: models.PermissionBlockDownload},
		}
		updated, err := s.UpdateLink(ctx, regularUser, link.ID, &UpdateLinkRequest{Recipients: &newSet})
		if err != nil {
			t.Fatalf("UpdateLink() error = %v", err)
		}
		if len(updated.Recipients) != 2 {
			t.Fatalf("expected recipients replaced wholesale, got %d", len(updated.Recipients))
		}
		var count int64
		db.Model(&models.LinkRecipient{}).Where("tracked_link_id = ?", link.ID).Count(&count)
		if count != 2 {
			t.Errorf("expected 2 recipient rows, got %d", count)
		}
	})

	t.Run("非所有者修改被拒绝且不泄露存在性", func(t *testing.T) {
		link, err := s.TrackLink(ctx, regularUser, trackRequest("https://s.example.com/l/foreign"))
		if err != nil {
			t.Fatalf("TrackLink() error = %v", err)
		}
		name := "hijack.xlsx"
		_, err = s.UpdateLink(ctx, otherUser, link.ID, &UpdateLinkRequest{FileName: &name})
		if !errors.Is(err, xerr.ErrLinkNotFound) {
			t.Errorf("expected ErrLinkNotFound, got %v", err)
		}
	})
}

func TestLinkService_UntrackLink(t *testing.T) {
	s, db := setupService(t)
	setPolicy(t, db, 90, 30, false)
	ctx := context.Background()

	link, err := s.TrackLink(ctx, regularUser, trackRequest("https://s.example.com/l/untrack"))
	if err != nil {
		t.Fatalf("TrackLink() error = %v", err)
	}

	t.Run("非所有者删除被拒绝", func(t *testing.T) {
		err := s.UntrackLink(ctx, otherUser, link.ID)
		if !errors.Is(err, xerr.ErrLinkNotFound) {
			t.Errorf("expected ErrLinkNotFound, got %v", err)
		}
	})

	t.Run("所有者删除成功", func(t *testing.T) {
		if err := s.UntrackLink(ctx, regularUser, link.ID); err != nil {
			t.Fatalf("UntrackLink() error = %v", err)
		}
		_, err := s.GetLink(ctx, regularUser, link.ID)
		if !errors.Is(err, xerr.ErrLinkNotFound) {
			t.Errorf("expected ErrLinkNotFound after untrack, got %v", err)
		}
		var count int64
		db.Model(&models.AuditLog{}).Where("action = ?", models.AuditActionLinkUntracked).Count(&count)
		if count != 1 {
			t.Errorf("expected 1 link.untracked audit entry, got %d", count)
		}
	})

	t.Run("重复删除返回未找到", func(t *testing.T) {
		err := s.UntrackLink(ctx, regularUser, link.ID)
		if !errors.Is(err, xerr.ErrLinkNotFound) {
			t.Errorf("expected ErrLinkNotFound, got %v", err)
		}
	})
}
