package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/3Eeeecho/go-linktrack/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB 创建内存 SQLite 数据库用于测试
func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func newTestLink(ownerID uint64, linkURL string, createdAt time.Time) *models.TrackedLink {
	expires := createdAt.AddDate(0, 0, 30)
	return &models.TrackedLink{
		FileIdentity: "0000000000000000000000000000000000000000000000000000000000000000",
		FileName:     "report.xlsx",
		FilePath:     "/finance/report.xlsx",
		Visibility:   models.VisibilityRestricted,
		LinkURL:      linkURL,
		OwnerID:      ownerID,
		ExpiresAt:    &expires,
		CreatedAt:    createdAt,
	}
}

func TestLinkRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLinkRepository(db)
	ctx := context.Background()

	link := newTestLink(1, "https://share.example.com/l/abc", time.Now())
	link.Recipients = []models.LinkRecipient{
		{RecipientIdentifier: "alice@example.com", PermissionLevel: models.PermissionView},
		{RecipientIdentifier: "bob@example.com", PermissionLevel: models.PermissionEdit},
	}
	if err := repo.Create(ctx, link); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if link.ID == 0 {
		t.Fatal("expected link ID to be assigned")
	}

	t.Run("FindByID 预加载收件人", func(t *testing.T) {
		found, err := repo.FindByID(ctx, link.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if found == nil {
			t.Fatal("expected link, got nil")
		}
		if len(found.Recipients) != 2 {
			t.Errorf("expected 2 recipients, got %d", len(found.Recipients))
		}
	})

	t.Run("FindByID 未找到时返回 nil, nil", func(t *testing.T) {
		found, err := repo.FindByID(ctx, 9999)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if found != nil {
			t.Errorf("expected nil for missing link, got %+v", found)
		}
	})

	t.Run("FindByLinkURL", func(t *testing.T) {
		found, err := repo.FindByLinkURL(ctx, link.LinkURL)
		if err != nil {
			t.Fatalf("FindByLinkURL() error = %v", err)
		}
		if found == nil || found.ID != link.ID {
			t.Errorf("expected link %d, got %+v", link.ID, found)
		}
	})
}

func TestLinkRepository_FindMany(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLinkRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	// 用户1三条，用户2两条；最后两条创建时间相同，靠 id 兜底排序
	seeds := []*models.TrackedLink{
		newTestLink(1, "https://share.example.com/l/1", base),
		newTestLink(2, "https://share.example.com/l/2", base.Add(time.Minute)),
		newTestLink(1, "https://share.example.com/l/3", base.Add(2*time.Minute)),
		newTestLink(1, "https://share.example.com/l/4", base.Add(3*time.Minute)),
		newTestLink(2, "https://share.example.com/l/5", base.Add(3*time.Minute)),
	}
	for _, l := range seeds {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	t.Run("按所有者过滤", func(t *testing.T) {
		ownerID := uint64(1)
		links, total, err := repo.FindMany(ctx, LinkFilter{OwnerID: &ownerID}, 1, 10)
		if err != nil {
			t.Fatalf("FindMany() error = %v", err)
		}
		if total != 3 {
			t.Errorf("expected total 3, got %d", total)
		}
		for _, l := range links {
			if l.OwnerID != 1 {
				t.Errorf("expected only owner 1 links, got owner %d", l.OwnerID)
			}
		}
	})

	t.Run("无过滤返回全量", func(t *testing.T) {
		_, total, err := repo.FindMany(ctx, LinkFilter{}, 1, 10)
		if err != nil {
			t.Fatalf("FindMany() error = %v", err)
		}
		if total != 5 {
			t.Errorf("expected total 5, got %d", total)
		}
	})

	t.Run("创建时间倒序且分页稳定", func(t *testing.T) {
		page1, _, err := repo.FindMany(ctx, LinkFilter{}, 1, 2)
		if err != nil {
			t.Fatalf("FindMany() error = %v", err)
		}
		page2, _, err := repo.FindMany(ctx, LinkFilter{}, 2, 2)
		if err != nil {
			t.Fatalf("FindMany() error = %v", err)
		}
		page3, _, err := repo.FindMany(ctx, LinkFilter{}, 3, 2)
		if err != nil {
			t.Fatalf("FindMany() error = %v", err)
		}

		var got []string
		for _, p := range [][]models.TrackedLink{page1, page2, page3} {
			for _, l := range p {
				got = append(got, l.LinkURL)
			}
		}
		// 时间相同的 /l/4 和 /l/5 按 id 倒序，后插入的 /l/5 在前
		want := []string{
			"https://share.example.com/l/5",
			"https://share.example.com/l/4",
			"https://share.example.com/l/3",
			"https://share.example.com/l/2",
			"https://share.example.com/l/1",
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d links across pages, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
			}
		}
	})
}

func TestLinkRepository_UpdateReplacesRecipients(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLinkRepository(db)
	ctx := context.Background()

	link := newTestLink(1, "https://share.example.com/l/upd", time.Now())
	link.Recipients = []models.LinkRecipient{
		{RecipientIdentifier: "alice@example.com", PermissionLevel: models.PermissionView},
		{RecipientIdentifier: "bob@example.com", PermissionLevel: models.PermissionView},
	}
	if err := repo.Create(ctx, link); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// 整体替换为一个全新的集合
	link.FileName = "renamed.xlsx"
	link.Recipients = []models.LinkRecipient{
		{RecipientIdentifier: "carol@example.com", PermissionLevel: models.PermissionEdit},
	}
	if err := repo.Update(ctx, link); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := repo.FindByID(ctx, link.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found.FileName != "renamed.xlsx" {
		t.Errorf("expected renamed file, got %s", found.FileName)
	}
	if len(found.Recipients) != 1 {
		t.Fatalf("expected recipients replaced wholesale, got %d", len(found.Recipients))
	}
	if found.Recipients[0].RecipientIdentifier != "carol@example.com" {
		t.Errorf("unexpected recipient %s", found.Recipients[0].RecipientIdentifier)
	}

	// 旧收件人行必须物理删除，不能残留孤儿
	var orphanCount int64
	db.Model(&models.LinkRecipient{}).Where("tracked_link_id = ?", link.ID).Count(&orphanCount)
	if orphanCount != 1 {
		t.Errorf("expected 1 recipient row, got %d", orphanCount)
	}
}

func TestLinkRepository_UpdateToEmptyRecipients(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLinkRepository(db)
	ctx := context.Background()

	link := newTestLink(1, "https://share.example.com/l/empty", time.Now())
	link.Recipients = []models.LinkRecipient{
		{RecipientIdentifier: "alice@example.com", PermissionLevel: models.PermissionView},
	}
	if err := repo.Create(ctx, link); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	link.Recipients = nil
	if err := repo.Update(ctx, link); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := repo.FindByID(ctx, link.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if len(found.Recipients) != 0 {
		t.Errorf("expected empty recipients, got %d", len(found.Recipients))
	}
}

func TestLinkRepository_DeleteRemovesRecipients(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLinkRepository(db)
	ctx := context.Background()

	link := newTestLink(1, "https://share.example.com/l/del", time.Now())
	link.Recipients = []models.LinkRecipient{
		{RecipientIdentifier: "alice@example.com", PermissionLevel: models.PermissionView},
	}
	if err := repo.Create(ctx, link); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(ctx, link.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	found, err := repo.FindByID(ctx, link.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found != nil {
		t.Error("expected link to be deleted")
	}
	var count int64
	db.Model(&models.LinkRecipient{}).Where("tracked_link_id = ?", link.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected recipients deleted with link, got %d rows", count)
	}
}

func TestLinkRepository_FindExpiringBetween(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLinkRepository(db)
	ctx := context.Background()

	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	until := now.AddDate(0, 0, 7)

	mk := func(url string, expiresAt *time.Time) {
		l := newTestLink(1, url, now.AddDate(0, 0, -10))
		l.ExpiresAt = expiresAt
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	exactlyNow := now
	inWindow := now.AddDate(0, 0, 3)
	exactlyUpper := until
	justPast := until.Add(time.Second)
	alreadyExpired := now.AddDate(0, 0, -1)

	// 下界开区间不算，上界闭区间算；已过期、超出窗口和无过期时间的都排除
	mk("https://s.example.com/l/now", &exactlyNow)
	mk("https://s.example.com/l/in", &inWindow)
	mk("https://s.example.com/l/upper", &exactlyUpper)
	mk("https://s.example.com/l/past", &justPast)
	mk("https://s.example.com/l/expired", &alreadyExpired)
	mk("https://s.example.com/l/never", nil)

	links, err := repo.FindExpiringBetween(ctx, now, until)
	if err != nil {
		t.Fatalf("FindExpiringBetween() error = %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links in window, got %d", len(links))
	}
	urls := map[string]bool{}
	for _, l := range links {
		urls[l.LinkURL] = true
	}
	if !urls["https://s.example.com/l/in"] || !urls["https://s.example.com/l/upper"] {
		t.Errorf("unexpected window contents: %v", urls)
	}
}
