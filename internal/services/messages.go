// Package services defines the business logic of the bot. This file holds
// the user-facing reply copy.
//
// All outbound text the bot sends lives here so wording changes never touch
// flow logic. The copy follows the original bot's register (Traditional
// Chinese, direct imperative tone).
package services

const (
	msgImageReceived = "收到圖片！請輸入您想要的效果描述，或輸入「選單」挑選風格。"

	msgProcessing = "正在生成圖片，請稍候…"

	msgGenerationFailed = "生成失敗，請稍後再試。"

	msgInputUnavailable = "無法獲取圖片，請重新上傳。"

	msgHostingFailed = "圖片已生成，但目前無法傳送，請稍後再試一次。"

	msgAwaitImage = "收到指令！請傳送一張圖片。"

	// %s is the transform label.
	msgTransformSelected = "已選擇「%s」，請傳送一張圖片。"

	// %d is the price of one paid generation.
	msgQuotaExhausted = "今日的免費生成額度已用完。輸入「付費生成」即可以 NT$%d 繼續生成，或明天再使用免費額度。"

	msgPaymentUnavailable = "付費生成功能尚未開放，請明天再使用免費額度。"

	// %s is the payment URL.
	msgPaymentReserved = "請透過以下連結完成付款，完成後即可繼續生成：\n%s"

	msgPaymentConfirmed = "付款完成！請重新傳送圖片與效果描述，本次生成不會計入免費額度。"

	msgPaymentFailed = "付款處理失敗，請稍後再試，或輸入「付款資訊」聯絡客服。"

	// %d / %d / %s are amount, daily limit and currency.
	msgPaymentInfo = "每次付費生成 %d %s。免費額度為每日 %d 次，用完後輸入「付費生成」即可繼續。"

	// %d / %d are used and limit; %s is the entitlement line.
	msgUsageStats = "今日已使用 %d/%d 次免費生成。%s"

	msgEntitlementHeld = "您目前持有一次已付費的生成額度。"
	msgNoEntitlement   = ""

	msgStillHasQuota = "您今日還有免費額度，直接傳送圖片即可生成。"

	msgQuickMenuTitle = "請選擇想要的風格："
)
