package ui

import (
	"bytes"
	"fmt"
	"image/color"
	"log"
	"strings"

	"github.com/ebitenui/ebitenui"
	"github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/automoto/isoroom/settings"
)

// Toggle names one of the view panel switches.
type Toggle int

const (
	ToggleNameTags Toggle = iota
	ToggleHidePlayer
	ToggleHideAll
	NameScaleUp
	NameScaleDown
	BubbleScaleUp
	BubbleScaleDown
	SkinPrev
	SkinNext
	ToggleOverlay
	ToggleOverlayLayer
	OverlayFadeIn
	OverlayFadeOut
	OverlayNext
)

// RoomUI is the control panel docked to the bottom of the room view.
type RoomUI struct {
	UI *ebitenui.UI

	OnSay    func(text string)
	OnStart  func()
	OnStop   func()
	OnTurn   func()
	OnToggle func(t Toggle)

	// Agent management
	OnCreateAgent func(name, instructions string)
	OnDeleteAgent func()
	OnAgentStep   func(n int)

	chatInput    *widget.TextInput
	agentName    *widget.TextInput
	agentInstr   *widget.TextInput
	statusLabel  *widget.Label
	connLabel    *widget.Label
	turnLabel    *widget.Label
	namesBtn     *widget.Button
	playerBtn    *widget.Button
	allBtn       *widget.Button
	scaleLabel   *widget.Label
	agentLabel   *widget.Label
	skinLabel    *widget.Label
	overlayBtn   *widget.Button
	layerBtn     *widget.Button
	overlayLabel *widget.Label
	noticeLabel  *widget.Label
	noticeBtn    *widget.Button
	controlBtns  []*widget.Button

	busy   bool
	notice string

	normalFace text.Face
	smallFace  text.Face
}

func NewRoomUI() *RoomUI {
	ui := &RoomUI{}
	ui.loadFonts()
	ui.buildUI()
	return ui
}

func (ui *RoomUI) loadFonts() {
	fontSource, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		log.Fatalf("failed to load UI font: %v", err)
	}

	ui.normalFace = &text.GoTextFace{Source: fontSource, Size: 12}
	ui.smallFace = &text.GoTextFace{Source: fontSource, Size: 10}
}

func (ui *RoomUI) buildUI() {
	rootContainer := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)

	padding := widget.Insets{Top: 6, Bottom: 6, Left: 8, Right: 8}
	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(image.NewNineSliceColor(color.RGBA{30, 30, 45, 230})),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Padding(&padding),
			widget.RowLayoutOpts.Spacing(6),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionCenter,
				VerticalPosition:   widget.AnchorLayoutPositionEnd,
			}),
		),
	)

	panel.AddChild(ui.buildChatRow())
	panel.AddChild(ui.buildControlRow())
	panel.AddChild(ui.buildAgentRow())
	panel.AddChild(ui.buildViewRow())
	panel.AddChild(ui.buildLookRow())
	panel.AddChild(ui.buildNoticeRow())

	statusRow := ui.row(12)
	ui.connLabel = ui.label("disconnected", color.RGBA{200, 200, 200, 255})
	ui.turnLabel = ui.label("turn -", color.RGBA{200, 200, 200, 255})
	ui.statusLabel = ui.label("", color.RGBA{255, 200, 100, 255})
	statusRow.AddChild(ui.connLabel)
	statusRow.AddChild(ui.turnLabel)
	statusRow.AddChild(ui.statusLabel)
	panel.AddChild(statusRow)

	rootContainer.AddChild(panel)
	ui.UI = &ebitenui.UI{Container: rootContainer}
}

func (ui *RoomUI) buildChatRow() *widget.Container {
	row := ui.row(6)

	ui.chatInput = ui.textInput("Say something...", 320)
	row.AddChild(ui.chatInput)

	row.AddChild(ui.button("Say", 60, greenButtonImage(), func() { ui.SubmitChat() }))
	return row
}

func (ui *RoomUI) buildControlRow() *widget.Container {
	row := ui.row(6)
	start := ui.button("Start", 70, greenButtonImage(), func() {
		if ui.OnStart != nil {
			ui.OnStart()
		}
	})
	stop := ui.button("Stop", 70, redButtonImage(), func() {
		if ui.OnStop != nil {
			ui.OnStop()
		}
	})
	turn := ui.button("Next turn", 90, buttonImage(), func() {
		if ui.OnTurn != nil {
			ui.OnTurn()
		}
	})
	ui.controlBtns = []*widget.Button{start, stop, turn}
	for _, b := range ui.controlBtns {
		row.AddChild(b)
	}
	return row
}

func (ui *RoomUI) buildAgentRow() *widget.Container {
	row := ui.row(6)
	ui.agentName = ui.textInput("Agent name", 120)
	ui.agentInstr = ui.textInput("Instructions", 260)
	row.AddChild(ui.agentName)
	row.AddChild(ui.agentInstr)

	create := ui.button("Create", 64, greenButtonImage(), func() { ui.SubmitAgent() })
	prev := ui.button("<", 24, buttonImage(), func() {
		if ui.OnAgentStep != nil {
			ui.OnAgentStep(-1)
		}
	})
	next := ui.button(">", 24, buttonImage(), func() {
		if ui.OnAgentStep != nil {
			ui.OnAgentStep(1)
		}
	})
	del := ui.button("Delete", 64, redButtonImage(), func() {
		if ui.OnDeleteAgent != nil {
			ui.OnDeleteAgent()
		}
	})
	ui.agentLabel = ui.label("no agents yet", color.RGBA{200, 200, 200, 255})

	row.AddChild(create)
	row.AddChild(prev)
	row.AddChild(ui.agentLabel)
	row.AddChild(next)
	row.AddChild(del)
	ui.controlBtns = append(ui.controlBtns, create, del)
	return row
}

func (ui *RoomUI) toggle(t Toggle) func() {
	return func() {
		if ui.OnToggle != nil {
			ui.OnToggle(t)
		}
	}
}

// buildLookRow holds the player skin picker and the overlay controls.
func (ui *RoomUI) buildLookRow() *widget.Container {
	row := ui.row(4)
	toggle := ui.toggle

	row.AddChild(ui.button("<", 24, buttonImage(), toggle(SkinPrev)))
	ui.skinLabel = ui.label("skin: -", color.RGBA{200, 200, 200, 255})
	row.AddChild(ui.skinLabel)
	row.AddChild(ui.button(">", 24, buttonImage(), toggle(SkinNext)))

	ui.overlayBtn = ui.button("Overlay: on", 90, buttonImage(), toggle(ToggleOverlay))
	ui.layerBtn = ui.button("Layer: back", 90, buttonImage(), toggle(ToggleOverlayLayer))
	row.AddChild(ui.overlayBtn)
	row.AddChild(ui.layerBtn)
	row.AddChild(ui.button("Fade -", 56, buttonImage(), toggle(OverlayFadeOut)))
	row.AddChild(ui.button("Fade +", 56, buttonImage(), toggle(OverlayFadeIn)))
	row.AddChild(ui.button("Theme", 56, buttonImage(), toggle(OverlayNext)))
	ui.overlayLabel = ui.label("", color.RGBA{200, 200, 200, 255})
	row.AddChild(ui.overlayLabel)
	return row
}

// buildNoticeRow holds the notice that must be dismissed before the next
// control call.
func (ui *RoomUI) buildNoticeRow() *widget.Container {
	row := ui.row(6)
	ui.noticeBtn = ui.button("OK", 40, redButtonImage(), func() { ui.DismissNotice() })
	ui.noticeBtn.GetWidget().Disabled = true
	ui.noticeLabel = ui.label("", color.RGBA{255, 120, 120, 255})
	row.AddChild(ui.noticeBtn)
	row.AddChild(ui.noticeLabel)
	return row
}

func (ui *RoomUI) buildViewRow() *widget.Container {
	row := ui.row(4)
	toggle := ui.toggle

	ui.namesBtn = ui.button("Names: on", 90, buttonImage(), toggle(ToggleNameTags))
	ui.playerBtn = ui.button("Player: shown", 100, buttonImage(), toggle(ToggleHidePlayer))
	ui.allBtn = ui.button("All: shown", 90, buttonImage(), toggle(ToggleHideAll))
	row.AddChild(ui.namesBtn)
	row.AddChild(ui.playerBtn)
	row.AddChild(ui.allBtn)

	row.AddChild(ui.button("Name -", 56, buttonImage(), toggle(NameScaleDown)))
	row.AddChild(ui.button("Name +", 56, buttonImage(), toggle(NameScaleUp)))
	row.AddChild(ui.button("Bubble -", 64, buttonImage(), toggle(BubbleScaleDown)))
	row.AddChild(ui.button("Bubble +", 64, buttonImage(), toggle(BubbleScaleUp)))

	ui.scaleLabel = ui.label("", color.RGBA{200, 200, 200, 255})
	row.AddChild(ui.scaleLabel)
	return row
}

func (ui *RoomUI) row(spacing int) *widget.Container {
	return widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
			widget.RowLayoutOpts.Spacing(spacing),
		)),
	)
}

func (ui *RoomUI) textInput(placeholder string, width int) *widget.TextInput {
	return widget.NewTextInput(
		widget.TextInputOpts.WidgetOpts(widget.WidgetOpts.MinSize(width, 22)),
		widget.TextInputOpts.Image(&widget.TextInputImage{
			Idle:     image.NewNineSliceColor(color.RGBA{50, 50, 70, 255}),
			Disabled: image.NewNineSliceColor(color.RGBA{40, 40, 50, 255}),
		}),
		widget.TextInputOpts.Face(&ui.normalFace),
		widget.TextInputOpts.Color(&widget.TextInputColor{
			Idle:          color.RGBA{255, 255, 255, 255},
			Disabled:      color.RGBA{128, 128, 128, 255},
			Caret:         color.RGBA{255, 255, 255, 255},
			DisabledCaret: color.RGBA{128, 128, 128, 255},
		}),
		widget.TextInputOpts.Placeholder(placeholder),
		widget.TextInputOpts.Padding(widget.NewInsetsSimple(4)),
	)
}

func (ui *RoomUI) label(s string, c color.Color) *widget.Label {
	return widget.NewLabel(
		widget.LabelOpts.Text(s, &ui.smallFace, &widget.LabelColor{Idle: c}),
	)
}

func (ui *RoomUI) button(label string, width int, img *widget.ButtonImage, onClick func()) *widget.Button {
	return widget.NewButton(
		widget.ButtonOpts.WidgetOpts(widget.WidgetOpts.MinSize(width, 24)),
		widget.ButtonOpts.Image(img),
		widget.ButtonOpts.Text(label, &ui.smallFace, &widget.ButtonTextColor{
			Idle:     color.RGBA{255, 255, 255, 255},
			Hover:    color.RGBA{220, 220, 255, 255},
			Pressed:  color.RGBA{180, 180, 200, 255},
			Disabled: color.RGBA{100, 100, 100, 255},
		}),
		widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
			onClick()
		}),
	)
}

func buttonImage() *widget.ButtonImage {
	return &widget.ButtonImage{
		Idle:     image.NewNineSliceColor(color.RGBA{60, 60, 80, 255}),
		Hover:    image.NewNineSliceColor(color.RGBA{80, 80, 100, 255}),
		Pressed:  image.NewNineSliceColor(color.RGBA{40, 40, 60, 255}),
		Disabled: image.NewNineSliceColor(color.RGBA{40, 40, 40, 255}),
	}
}

func greenButtonImage() *widget.ButtonImage {
	return &widget.ButtonImage{
		Idle:     image.NewNineSliceColor(color.RGBA{40, 100, 40, 255}),
		Hover:    image.NewNineSliceColor(color.RGBA{60, 140, 60, 255}),
		Pressed:  image.NewNineSliceColor(color.RGBA{30, 80, 30, 255}),
		Disabled: image.NewNineSliceColor(color.RGBA{40, 50, 40, 255}),
	}
}

func redButtonImage() *widget.ButtonImage {
	return &widget.ButtonImage{
		Idle:     image.NewNineSliceColor(color.RGBA{120, 40, 40, 255}),
		Hover:    image.NewNineSliceColor(color.RGBA{160, 60, 60, 255}),
		Pressed:  image.NewNineSliceColor(color.RGBA{90, 30, 30, 255}),
		Disabled: image.NewNineSliceColor(color.RGBA{50, 40, 40, 255}),
	}
}

// SubmitChat hands the trimmed chat text to OnSay and clears the input.
func (ui *RoomUI) SubmitChat() {
	msg := ui.chatInput.GetText()
	if msg == "" {
		return
	}
	ui.chatInput.SetText("")
	if ui.OnSay != nil {
		ui.OnSay(msg)
	}
}

// SubmitAgent hands the agent form to OnCreateAgent. The form is cleared
// only once the agent exists, see AgentCreated.
func (ui *RoomUI) SubmitAgent() {
	if ui.OnCreateAgent != nil {
		ui.OnCreateAgent(strings.TrimSpace(ui.agentName.GetText()), strings.TrimSpace(ui.agentInstr.GetText()))
	}
}

// AgentCreated clears the agent form.
func (ui *RoomUI) AgentCreated() {
	ui.agentName.SetText("")
	ui.agentInstr.SetText("")
}

// SetAgent shows the selected agent line.
func (ui *RoomUI) SetAgent(label string) {
	ui.agentLabel.Label = label
}

// SetOverlayName shows the theme of the chosen overlay.
func (ui *RoomUI) SetOverlayName(name string) {
	if name == "" {
		name = "none"
	}
	ui.overlayLabel.Label = "theme: " + name
}

// ShowNotice displays msg and disables the control buttons until the user
// dismisses it.
func (ui *RoomUI) ShowNotice(msg string) {
	ui.notice = msg
	ui.noticeLabel.Label = msg
	ui.noticeBtn.GetWidget().Disabled = false
	ui.refreshControls()
}

func (ui *RoomUI) DismissNotice() {
	ui.notice = ""
	ui.noticeLabel.Label = ""
	ui.noticeBtn.GetWidget().Disabled = true
	ui.refreshControls()
}

// NoticeActive reports whether a notice is waiting to be dismissed.
func (ui *RoomUI) NoticeActive() bool {
	return ui.notice != ""
}

func (ui *RoomUI) SetStatus(msg string) {
	if ui.statusLabel != nil {
		ui.statusLabel.Label = msg
	}
}

func (ui *RoomUI) SetConnection(state string) {
	ui.connLabel.Label = state
}

func (ui *RoomUI) SetTurn(turn int) {
	ui.turnLabel.Label = fmt.Sprintf("turn %d", turn)
}

// SetBusy disables the control buttons while a request is in flight.
func (ui *RoomUI) SetBusy(busy bool) {
	ui.busy = busy
	ui.refreshControls()
}

func (ui *RoomUI) refreshControls() {
	disabled := ui.busy || ui.notice != ""
	for _, b := range ui.controlBtns {
		b.GetWidget().Disabled = disabled
	}
}

// SetDisplay reflects the current view settings on the toggle buttons.
func (ui *RoomUI) SetDisplay(d settings.Display) {
	setButtonLabel(ui.namesBtn, "Names: "+onOff(d.NameTags, "on", "off"))
	setButtonLabel(ui.playerBtn, "Player: "+onOff(d.HidePlayer, "hidden", "shown"))
	setButtonLabel(ui.allBtn, "All: "+onOff(d.HideAll, "hidden", "shown"))
	ui.scaleLabel.Label = fmt.Sprintf("names x%.2g  bubbles x%.2g", d.NameScale, d.BubbleScale)

	skin := d.Skin
	if skin == "" {
		skin = "-"
	}
	ui.skinLabel.Label = "skin: " + skin
	setButtonLabel(ui.overlayBtn, "Overlay: "+onOff(d.ShowOverlay, "on", "off"))
	setButtonLabel(ui.layerBtn, "Layer: "+onOff(d.OverlayForeground, "front", "back"))
}

func setButtonLabel(b *widget.Button, s string) {
	if b == nil {
		return
	}
	if textWidget := b.Text(); textWidget != nil {
		textWidget.Label = s
	}
}

func onOff(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

func (ui *RoomUI) Update() {
	ui.UI.Update()
}

// ChatFocused reports whether keystrokes belong to the chat input.
func (ui *RoomUI) ChatFocused() bool {
	return ui.chatInput.IsFocused()
}

// Typing reports whether any text input has the keyboard.
func (ui *RoomUI) Typing() bool {
	return ui.chatInput.IsFocused() || ui.agentName.IsFocused() || ui.agentInstr.IsFocused()
}
