package publisher

import (
	"fmt"
	"time"

	"github.com/ninja0404/token-pilot/internal/common"
	"github.com/ninja0404/token-pilot/internal/notifier"
	"github.com/ninja0404/token-pilot/pkg/utils"
)

// FeishuPublisher 飞书发布器
type FeishuPublisher struct {
	webhookURL string
}

// NewFeishuPublisher 创建飞书发布器
func NewFeishuPublisher(webhookURL string) *FeishuPublisher {
	return &FeishuPublisher{
		webhookURL: webhookURL,
	}
}

func (p *FeishuPublisher) GetType() string {
	return "feishu"
}

func (p *FeishuPublisher) Publish(fill *common.FillEvent) error {
	message := p.formatFillMessage(fill)
	return notifier.SendToLark(message, p.webhookURL)
}

func (p *FeishuPublisher) Close() error {
	return nil
}

// getActionName 获取成交方向的中文名称
func (p *FeishuPublisher) getActionName(action common.Action) string {
	switch action {
	case common.BuyAction:
		return "买入"
	case common.SellAction:
		return "卖出"
	default:
		return "未知"
	}
}

// getActionEmoji 获取成交方向对应的emoji
func (p *FeishuPublisher) getActionEmoji(action common.Action) string {
	if action == common.SellAction {
		return "💰"
	}
	return "🚀"
}

// getReasonName 获取离场原因的中文名称
func (p *FeishuPublisher) getReasonName(reason string) string {
	switch reason {
	case "entry":
		return "入场信号"
	case "take_profit":
		return "达到止盈线"
	case "stop_loss":
		return "触发止损"
	case "max_hold":
		return "持仓超时"
	case "reversal":
		return "反转形态"
	case "trend_fade_profit":
		return "趋势走弱落袋"
	default:
		return reason
	}
}

// formatFillMessage 格式化成交消息
func (p *FeishuPublisher) formatFillMessage(fill *common.FillEvent) string {
	loc, _ := time.LoadLocation("Asia/Shanghai")

	profitLoss := "N/A"
	if fill.ProfitLoss != nil {
		profitLoss = fmt.Sprintf("%s%%", fill.ProfitLoss.Truncate(2).String())
	}

	holdTime := "N/A"
	if fill.HoldTimeSec != nil {
		holdTime = fmt.Sprintf("%d秒", *fill.HoldTimeSec)
	}

	message := fmt.Sprintf(`%s 模拟交易成交

📌 方向: %s
🪙 代币地址: %s
💵 成交价格: %s
🔢 成交数量: %s
💳 成交金额: $%s
📈 盈亏: %s
⏱️ 持仓时长: %s
📝 触发原因: %s

🔗 GMGN链接: https://gmgn.ai/sol/token/%s
⏰ 成交时间: %s`,
		p.getActionEmoji(fill.Action),
		p.getActionName(fill.Action),
		utils.GetDisplayWalletAddress(fill.Mint),
		utils.FormatPrice(fill.PriceUSD.String()),
		utils.FormatAmountWithDecimals(fill.Amount.String(), 0),
		fill.TotalUSD.Truncate(2).String(),
		profitLoss,
		holdTime,
		p.getReasonName(fill.Reason),
		fill.Mint,
		fill.Timestamp.In(loc).Format("2006-01-02 15:04:05"))

	return message
}
