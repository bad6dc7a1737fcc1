package logic

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html"

	"github.com/blues/pledge/internal/model"
	"gorm.io/gorm"
)

// TokenLogic 成就代币业务逻辑（灵魂绑定，铸造后不可转让）
type TokenLogic struct {
	db *gorm.DB
}

// NewTokenLogic 创建成就代币业务逻辑
func NewTokenLogic(db *gorm.DB) *TokenLogic {
	return &TokenLogic{db: db}
}

// TokenMetadata 代币元数据，只依赖代币自身字段生成
type TokenMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// MintTx 在指定事务内铸造一枚成就代币，id由数据库单调递增
func (t *TokenLogic) MintTx(tx *gorm.DB, owner string, campaignId int64, pledgeAmount int64, campaignTitle string) (int64, error) {
	token := model.AchievementTokenModel{
		OwnerAddress:  owner,
		CampaignId:    campaignId,
		PledgeAmount:  pledgeAmount,
		CampaignTitle: campaignTitle,
	}
	if err := tx.Create(&token).Error; err != nil {
		return 0, fmt.Errorf("failed to mint achievement token: %w", err)
	}
	return token.Id, nil
}

// Transfer 转让成就代币。无条件失败：灵魂绑定是结构性约束，
// 对持有人、运营方和管理员同样生效。
func (t *TokenLogic) Transfer(tokenId int64, from, to, caller string) error {
	return model.ErrNonTransferable
}

// Describe 生成代币元数据。只读取代币记录自身的字段，
// 活动记录被清理后元数据依然有效。
func (t *TokenLogic) Describe(tokenId int64) (*TokenMetadata, error) {
	var token model.AchievementTokenModel
	if err := t.db.First(&token, tokenId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrTokenNotFound
		}
		return nil, fmt.Errorf("获取成就代币失败: %w", err)
	}

	return &TokenMetadata{
		Name:        fmt.Sprintf("Pledge Achievement #%d", token.Id),
		Description: fmt.Sprintf("Supporter of \"%s\" with a pledge of %d", token.CampaignTitle, token.PledgeAmount),
		Image:       tokenImage(&token),
	}, nil
}

// DescribeURI 生成 data:application/json;base64 形式的元数据URI
func (t *TokenLogic) DescribeURI(tokenId int64) (string, error) {
	meta, err := t.Describe(tokenId)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token metadata: %w", err)
	}
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString(payload), nil
}

// ListUserTokens 获取用户持有的成就代币
func (t *TokenLogic) ListUserTokens(owner string) ([]model.AchievementTokenModel, error) {
	var tokens []model.AchievementTokenModel
	if err := t.db.Where("owner_address = ?", owner).Order("id ASC").Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("获取用户代币列表失败: %w", err)
	}
	return tokens, nil
}

// tokenImage 生成内联SVG徽章，同样只依赖代币字段。
// 活动标题是用户输入，嵌入前转义，避免破坏SVG结构。
func tokenImage(token *model.AchievementTokenModel) string {
	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="350" height="350">`+
			`<rect width="100%%" height="100%%" fill="#1a1a2e"/>`+
			`<text x="50%%" y="40%%" fill="#e94560" font-size="24" text-anchor="middle">Pledge #%d</text>`+
			`<text x="50%%" y="55%%" fill="#ffffff" font-size="14" text-anchor="middle">%s</text>`+
			`<text x="50%%" y="70%%" fill="#0f3460" font-size="18" text-anchor="middle">%d</text>`+
			`</svg>`,
		token.Id, html.EscapeString(token.CampaignTitle), token.PledgeAmount,
	)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
