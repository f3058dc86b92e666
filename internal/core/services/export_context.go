package services

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/text/language"

	"discord-chat-archiver/internal/domain"
	"discord-chat-archiver/internal/ports"
)

// ExportContext хранит разделяемое состояние одной выгрузки: гильдию,
// канал, кэши участников и ролей и настройки представления. Контекст
// безопасен для одновременного использования писателями.
type ExportContext struct {
	Request ExportRequest
	Guild   domain.Guild
	Channel *domain.Channel

	client ports.DiscordClient
	assets ports.AssetDownloader
	log    *slog.Logger

	// assetsDir — каталог медиа этой выгрузки; задается фабрикой
	// писателей после разрешения пути выгрузки.
	assetsDir string

	mu sync.RWMutex
	// members хранит и отрицательные результаты: nil под ключом
	// означает, что участник уже запрашивался и недоступен.
	members  map[domain.Snowflake]*domain.Member
	channels map[domain.Snowflake]*domain.Channel
	roles    map[domain.Snowflake]domain.Role
	// rolesByPosition отсортированы по убыванию позиции, чтобы цвет
	// участника определялся старшей цветной ролью.
	rolesByPosition []domain.Role
}

// NewExportContext создаёт контекст экспорта для одного канала.
func NewExportContext(req ExportRequest, guild domain.Guild, channel *domain.Channel, client ports.DiscordClient, assets ports.AssetDownloader, log *slog.Logger) *ExportContext {
	return &ExportContext{
		Request:  req,
		Guild:    guild,
		Channel:  channel,
		client:   client,
		assets:   assets,
		log:      log,
		members:  make(map[domain.Snowflake]*domain.Member),
		channels: make(map[domain.Snowflake]*domain.Channel),
		roles:    make(map[domain.Snowflake]domain.Role),
	}
}

// populateGuild загружает каналы и роли гильдии одним проходом.
// Для личных сообщений справочники остаются пустыми.
func (ec *ExportContext) populateGuild(ctx context.Context) error {
	if ec.Guild.ID.IsZero() {
		return nil
	}

	channels, err := ec.client.GetGuildChannels(ctx, ec.Guild.ID)
	if err != nil {
		return err
	}
	roles, err := ec.client.GetGuildRoles(ctx, ec.Guild.ID)
	if err != nil {
		return err
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()
	for _, ch := range channels {
		ec.channels[ch.ID] = ch
	}
	for _, role := range roles {
		ec.roles[role.ID] = role
	}
	ec.rolesByPosition = append(ec.rolesByPosition[:0], roles...)
	sort.Slice(ec.rolesByPosition, func(i, j int) bool {
		return ec.rolesByPosition[i].Position > ec.rolesByPosition[j].Position
	})
	return nil
}

// memberResult — вспомогательная структура для передачи результатов от воркеров.
type memberResult struct {
	userID domain.Snowflake
	member *domain.Member
	err    error
}

// PopulateMembers разрешает участников гильдии для пакета пользователей
// пулом воркеров. Недоступные участники запоминаются как nil, чтобы не
// запрашивать их повторно.
func (ec *ExportContext) PopulateMembers(ctx context.Context, users []domain.User, poolSize int) error {
	if poolSize <= 0 {
		poolSize = 1
	}

	// Отбрасываем уже известных и дубликаты внутри пакета.
	pending := make([]domain.User, 0, len(users))
	seen := make(map[domain.Snowflake]struct{}, len(users))
	ec.mu.RLock()
	for _, u := range users {
		if _, known := ec.members[u.ID]; known {
			continue
		}
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		pending = append(pending, u)
	}
	ec.mu.RUnlock()

	if len(pending) == 0 {
		return nil
	}
	if poolSize > len(pending) {
		poolSize = len(pending)
	}

	tasks := make(chan domain.User, len(pending))
	results := make(chan memberResult, len(pending))
	var wg sync.WaitGroup

	for i := 0; i < poolSize; i++ {
		wg.Add(1)
		go ec.memberWorker(ctx, &wg, tasks, results)
	}

	for _, u := range pending {
		tasks <- u
	}
	close(tasks)
	wg.Wait()
	close(results)

	ec.mu.Lock()
	defer ec.mu.Unlock()
	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		ec.members[res.userID] = res.member
	}
	return firstErr
}

func (ec *ExportContext) memberWorker(ctx context.Context, wg *sync.WaitGroup, tasks <-chan domain.User, results chan<- memberResult) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case user, ok := <-tasks:
			if !ok {
				return
			}

			member, err := ec.client.TryGetGuildMember(ctx, ec.Guild.ID, user.ID)
			if err != nil {
				// Фатальные ошибки всплывают, остальное не мешает выгрузке.
				if domain.IsFatal(err) {
					results <- memberResult{userID: user.ID, err: err}
					continue
				}
				ec.log.WarnContext(ctx, "Failed to resolve guild member", "user_id", user.ID, "error", err)
			}
			if member == nil {
				fallback := domain.MemberOfUser(user)
				member = &fallback
			}
			results <- memberResult{userID: user.ID, member: member}
		}
	}
}

// TryGetMember возвращает ранее разрешенного участника либо nil.
func (ec *ExportContext) TryGetMember(id domain.Snowflake) *domain.Member {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.members[id]
}

// TryGetChannel возвращает канал гильдии из кэша либо nil.
func (ec *ExportContext) TryGetChannel(id domain.Snowflake) *domain.Channel {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.channels[id]
}

// TryGetRole возвращает роль гильдии из кэша.
func (ec *ExportContext) TryGetRole(id domain.Snowflake) (domain.Role, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	role, ok := ec.roles[id]
	return role, ok
}

// TryGetUserRoles возвращает роли участника по убыванию позиции.
func (ec *ExportContext) TryGetUserRoles(id domain.Snowflake) []domain.Role {
	ec.mu.RLock()
	defer ec.mu.RUnlock()

	member := ec.members[id]
	if member == nil {
		return nil
	}
	owned := make(map[domain.Snowflake]struct{}, len(member.RoleIDs))
	for _, roleID := range member.RoleIDs {
		owned[roleID] = struct{}{}
	}

	var roles []domain.Role
	for _, role := range ec.rolesByPosition {
		if _, ok := owned[role.ID]; ok {
			roles = append(roles, role)
		}
	}
	return roles
}

// TryGetUserColor возвращает цвет старшей цветной роли участника.
func (ec *ExportContext) TryGetUserColor(id domain.Snowflake) *domain.Color {
	for _, role := range ec.TryGetUserRoles(id) {
		if role.Color != nil {
			return role.Color
		}
	}
	return nil
}

// TryGetReactionUsers возвращает первую сотню пользователей, поставивших
// реакцию. Недоступность списка не считается ошибкой выгрузки.
func (ec *ExportContext) TryGetReactionUsers(ctx context.Context, messageID domain.Snowflake, emoji domain.Emoji) []domain.User {
	users, err := ec.client.GetMessageReactionUsers(ctx, ec.Channel.ID, messageID, emoji, 100)
	if err != nil {
		ec.log.WarnContext(ctx, "Failed to fetch reaction users", "message_id", messageID, "error", err)
		return nil
	}
	return users
}

// SetAssetsDir задает каталог медиа этой выгрузки.
func (ec *ExportContext) SetAssetsDir(dir string) {
	ec.assetsDir = dir
}

// ResolveAssetURL возвращает локальный путь ресурса, когда скачивание
// медиа включено, иначе исходный URL.
func (ec *ExportContext) ResolveAssetURL(ctx context.Context, url string) string {
	if url == "" || !ec.Request.ShouldDownloadAssets || ec.assets == nil {
		return url
	}
	return ec.assets.ResolveURL(ctx, ec.assetsDir, url)
}

// dateFormats отображает односимвольные коды форматов дат на макеты
// пакета time. Код "R" обрабатывается отдельно как относительное время.
// Для локалей с порядком месяц-день используются 12-часовые часы,
// для остальных порядок день-месяц и 24-часовые.
var (
	usDateFormats = map[string]string{
		"g": "15:04",
		"t": "3:04 PM",
		"T": "3:04:05 PM",
		"d": "01/02/2006",
		"D": "January 2, 2006",
		"f": "January 2, 2006 3:04 PM",
		"F": "Monday, January 2, 2006 3:04 PM",
	}
	dayFirstDateFormats = map[string]string{
		"g": "15:04",
		"t": "15:04",
		"T": "15:04:05",
		"d": "02/01/2006",
		"D": "2 January 2006",
		"f": "2 January 2006 15:04",
		"F": "Monday, 2 January 2006 15:04",
	}
)

var usRegion = language.MustParseRegion("US")

// usesUSDateOrder сообщает, принят ли в локали выгрузки порядок
// месяц-день. Регион выводится из тега по наиболее вероятным субтегам.
func (ec *ExportContext) usesUSDateOrder() bool {
	region, _ := ec.Locale().Region()
	return region == usRegion
}

// FormatDate форматирует момент времени по односимвольному коду формата,
// с учетом локали и нормализации часового пояса выгрузки.
func (ec *ExportContext) FormatDate(t time.Time, format string) string {
	if ec.Request.IsUTCNormalizationEnabled {
		t = t.UTC()
	} else {
		t = t.Local()
	}

	if format == "R" {
		return formatRelative(time.Since(t))
	}
	layouts := usDateFormats
	if !ec.usesUSDateOrder() {
		layouts = dayFirstDateFormats
	}
	layout, ok := layouts[format]
	if !ok {
		layout = layouts["f"]
	}
	return t.Format(layout)
}

// FormatDateRange описывает границы выгрузки для преамбулы.
func (ec *ExportContext) FormatDateRange() string {
	after, before := ec.Request.After, ec.Request.Before
	switch {
	case !after.IsZero() && !before.IsZero():
		return "Between " + ec.FormatDate(after.Time(), "f") + " and " + ec.FormatDate(before.Time(), "f")
	case !after.IsZero():
		return "After " + ec.FormatDate(after.Time(), "f")
	case !before.IsZero():
		return "Before " + ec.FormatDate(before.Time(), "f")
	default:
		return ""
	}
}

// formatRelative переводит давность в человекочитаемую фразу.
func formatRelative(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour") + " ago"
	case d < 30*24*time.Hour:
		return plural(int(d.Hours()/24), "day") + " ago"
	case d < 365*24*time.Hour:
		return plural(int(d.Hours()/24/30), "month") + " ago"
	default:
		return plural(int(d.Hours()/24/365), "year") + " ago"
	}
}

func plural(n int, unit string) string {
	if n <= 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

// Locale возвращает языковой тег представления дат.
func (ec *ExportContext) Locale() language.Tag {
	tag, err := language.Parse(ec.Request.Locale)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}
