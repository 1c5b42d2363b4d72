// Package catalog holds the static conversation catalog: the six transform
// labels with their canned generation prompts, the rich-menu command labels,
// and the canned reply copy. The catalog is configuration data, loaded once
// at startup and read-only thereafter. Matching is exact-string and
// case-sensitive; there is no fuzzy matching.
package catalog

// Transform binds a menu label to its canned generation instruction.
type Transform struct {
	Label  string
	Prompt string
}

// transforms lists the six rich-menu transformations in menu order.
var transforms = []Transform{
	{
		Label:  "圖片變模型",
		Prompt: `生成高畫質場景：將圖片主體轉換為一個1/7比例的PVC公仔，站在透明圓形底座上，擺放於蘋果電腦桌前。螢幕顯示該角色的3D線框專業系統設計圖。公仔造型真實、清晰。桌上有鍵盤、滑鼠，以及同款日系風格的商品包裝盒`,
	},
	{
		Label:  "樂高玩具",
		Prompt: `Transform the person in the photo into the style of a LEGO minifigure packaging box, presented in an isometric perspective. Label the packaging with the title 'ZHOGUE'. Inside the box, showcase the LEGO minifigure based on the person in the photo, accompanied by their essential items (such as cosmetics, bags, or others) as LEGO accessories. Next to the box, also display the actual LEGO minifigure itself outside of the packaging, rendered in a realistic and lifelike style.`,
	},
	{
		Label:  "雜誌封面",
		Prompt: `生成高畫質寫真，時尚風格，專業攝影棚打光，隨機拍攝角度，可為全身或半身。身穿時尚服飾，自然但充滿自信的姿態，真實膚質與髮絲細節清晰。畫面構圖如同時尚雜誌封面，搭配極簡排版與雜誌文字設計元素，整體氛圍高級、專業，照片質感如 Vogue 或 ELLE 的雜誌封面。`,
	},
	{
		Label:  "專業履歷照",
		Prompt: `生成專業棚拍形象照，穿著黑色西裝，深色背景，適合放在履歷的照片`,
	},
	{
		Label:  "日系寫真",
		Prompt: `將畫面中的人物做一張日系清新風格，隨機拍攝角度，可為全身或半身構圖。如專業攝影師拍攝的日系寫真作品。`,
	},
	{
		Label:  "1970年",
		Prompt: `Reimagine the person in this photo in the style of Taiwan in the 1970s. This includes clothing, hairstyle, photo quality, and the overall aesthetic of that decade. The output must be a photorealistic image showing the person clearly.`,
	},
}

// byLabel indexes transforms for exact-match lookup.
var byLabel = func() map[string]Transform {
	m := make(map[string]Transform, len(transforms))
	for _, t := range transforms {
		m[t.Label] = t
	}
	return m
}()

// LookupTransform returns the transform for an exactly matching label.
func LookupTransform(label string) (Transform, bool) {
	t, ok := byLabel[label]
	return t, ok
}

// Transforms returns the six transforms in menu order. The returned slice
// must not be mutated.
func Transforms() []Transform { return transforms }

// Command labels answered with canned copy. These mirror the rich-menu
// message actions plus the payment and stats keywords.
const (
	CmdUploadHint  = "上傳圖片"
	CmdStyleHint   = "圖片風格轉換"
	CmdEnhanceHint = "圖片增強"
	CmdDetectHint  = "物件偵測"
	CmdOCRHint     = "文字辨識"
	CmdHelp        = "說明"
	CmdQuickMenu   = "選單"
	CmdPayGenerate = "付費生成"
	CmdPaymentInfo = "付款資訊"
	CmdUsageStats  = "使用統計"
)

// HintFor returns the canned reply for a static command label, and whether
// the label is a known command.
func HintFor(label string) (string, bool) {
	s, ok := hints[label]
	return s, ok
}

var hints = map[string]string{
	CmdUploadHint:  "請直接傳送一張圖片，我會請您輸入想要的效果描述。",
	CmdStyleHint:   "先從選單挑選一種風格（輸入「選單」查看），再傳送圖片即可轉換。",
	CmdEnhanceHint: "傳送圖片後輸入「提升畫質與細節」，即可獲得增強後的圖片。",
	CmdDetectHint:  "傳送圖片後輸入「標出圖中的物件」，我會為您標註偵測結果。",
	CmdOCRHint:     "傳送圖片後輸入「辨識圖中文字」，我會回覆辨識出的文字內容。",
	CmdHelp:        HelpText,
}

// HelpText is the generic usage instruction, also used as the fall-through
// reply when input matches nothing and no session context exists.
const HelpText = "使用方法：\n1. 傳送一張圖片\n2. 接著傳送文字描述想要的效果\n\n也可以先輸入「選單」挑選風格，再傳送圖片。\n輸入「使用統計」查看今日用量，「付費生成」可在免費額度用完後繼續生成。"
