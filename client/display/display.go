// Package display renders the cabinet UI model in an ebiten window and
// forwards name entry keystrokes.
package display

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/cbodonnell/cabinet/client/fonts"
	"github.com/cbodonnell/cabinet/client/input"
	"github.com/cbodonnell/cabinet/pkg/game/types"
	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/cbodonnell/cabinet/pkg/scoreboard"
	"github.com/cbodonnell/cabinet/pkg/state"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
)

const (
	ScreenWidth  = 1280
	ScreenHeight = 720

	tableX      = 760
	tableY      = 40
	tableRowH   = 32
	tableColumn = 120
)

var (
	backgroundColor  = color.RGBA{0x10, 0x10, 0x20, 0xff}
	foregroundColor  = color.White
	accentColor      = color.RGBA{0xff, 0xd7, 0x00, 0xff}
	dimColor         = color.RGBA{0x80, 0x80, 0x90, 0xff}
	highlightColor   = color.RGBA{0x40, 0x30, 0x00, 0xff}
	overlayColor     = color.RGBA{0x00, 0x00, 0x00, 0xc0}
	inputBorderColor = color.RGBA{0xff, 0xd7, 0x00, 0xff}
)

// Input receives the operator's actions. Implementations must not block.
type Input interface {
	TypeName(value string)
	SubmitName(name string)
	RequestDevice()
}

// Game implements ebiten.Game interface, which has Update, Draw and Layout methods.
type Game struct {
	states state.StateManager
	input  Input

	// editor mirrors the name being typed between snapshots
	editor    scoreboard.NameEditor
	focused   bool
	submitted bool
	runes     []rune

	snapshot *types.Snapshot
}

func NewGame(states state.StateManager, in Input) *Game {
	return &Game{
		states:   states,
		input:    in,
		snapshot: states.Get(),
	}
}

// Run opens the window and blocks until it is closed.
func Run(g *Game, title string) error {
	ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("failed to run display: %w", err)
	}
	return nil
}

func (g *Game) Update() error {
	g.snapshot = g.states.Get()

	if input.IsQuitJustPressed() {
		return ebiten.Termination
	}
	if input.IsFullscreenToggleJustPressed() {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if input.IsDeviceRequestJustPressed() {
		log.Info("Serial device requested from the keyboard")
		g.input.RequestDevice()
	}

	g.runes = input.AppendTypedChars(g.runes[:0])
	g.updateName(g.snapshot, g.runes, input.IsEraseJustPressed(), input.IsSubmitJustPressed())
	return nil
}

// updateName applies one frame of name entry.
func (g *Game) updateName(snap *types.Snapshot, typed []rune, erase, submit bool) {
	if snap.State != types.StateEnd || !snap.NameFocus {
		g.focused = false
		g.submitted = false
		return
	}
	if !g.focused {
		g.editor.Reset(snap.NameInput)
		g.focused = true
	}
	if g.submitted {
		return
	}

	changed := g.editor.Type(typed)
	if erase && g.editor.Erase() {
		changed = true
	}
	if changed {
		g.input.TypeName(g.editor.String())
	}
	if submit && g.editor.String() != "" {
		g.submitted = true
		g.input.SubmitName(g.editor.String())
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	snap := g.snapshot
	if snap == nil {
		return
	}

	drawText(screen, stateBanner(snap.State), fonts.TitleFont, 60, 110, accentColor)
	drawText(screen, "SCORE", fonts.NormalFont, 60, 220, dimColor)
	drawText(screen, snap.Score, fonts.TitleFont, 60, 280, foregroundColor)
	drawText(screen, "TIME", fonts.NormalFont, 60, 360, dimColor)
	drawText(screen, snap.Clock, fonts.TitleFont, 60, 420, foregroundColor)
	if snap.Transport != "" {
		drawText(screen, snap.Transport, fonts.NormalFont, 60, ScreenHeight-40, dimColor)
	}

	drawScoreboard(screen, snap.Scoreboard)

	if snap.State == types.StateEnd && snap.EndScreen != nil {
		g.drawEndScreen(screen, snap)
	}
}

func (g *Game) drawEndScreen(screen *ebiten.Image, snap *types.Snapshot) {
	const x, y, w, h = 80, 140, 600, 440
	vector.DrawFilledRect(screen, x, y, w, h, overlayColor, false)

	end := snap.EndScreen
	drawTextCentered(screen, end.Message, fonts.TitleFont, x+w/2, y+90, accentColor)
	drawTextCentered(screen, fmt.Sprintf("SCORE %d", end.Score), fonts.NormalFont, x+w/2, y+170, foregroundColor)
	if end.Rank != "" {
		drawTextCentered(screen, fmt.Sprintf("RANK %s", strings.ToUpper(end.Rank)), fonts.NormalFont, x+w/2, y+215, foregroundColor)
	}

	if !snap.NameFocus {
		return
	}
	name := snap.NameInput
	if g.focused {
		name = g.editor.String()
	}
	const bx, by, bw, bh = x + w/2 - 110, y + 270, 220, 70
	vector.StrokeRect(screen, bx, by, bw, bh, 3, inputBorderColor, false)
	cursor := ""
	if len([]rune(name)) < scoreboard.MaxNameLength {
		cursor = "_"
	}
	drawTextCentered(screen, name+cursor, fonts.TitleFont, x+w/2, by+55, foregroundColor)
	drawTextCentered(screen, "ENTER YOUR NAME", fonts.NormalFont, x+w/2, by+bh+40, dimColor)
}

func drawScoreboard(screen *ebiten.Image, rows []scoreboard.Row) {
	drawText(screen, "RANK", fonts.TableFont, tableX, tableY, dimColor)
	drawText(screen, "NAME", fonts.TableFont, tableX+tableColumn, tableY, dimColor)
	drawText(screen, "SCORE", fonts.TableFont, tableX+2*tableColumn, tableY, dimColor)

	for i, row := range rows {
		y := tableY + (i+1)*tableRowH
		clr := color.Color(foregroundColor)
		if row.Provisional {
			vector.DrawFilledRect(screen, tableX-10, float32(y-tableRowH+8), 3*tableColumn+20, tableRowH, highlightColor, false)
			clr = accentColor
		}
		drawText(screen, row.Rank, fonts.TableFont, tableX, y, clr)
		drawText(screen, row.Name, fonts.TableFont, tableX+tableColumn, y, clr)
		drawText(screen, row.Score, fonts.TableFont, tableX+2*tableColumn, y, clr)
	}
}

func stateBanner(s types.State) string {
	switch s {
	case types.StateLoading:
		return "CONNECTING..."
	case types.StateIdle:
		return "PRESS START"
	case types.StateStarting:
		return "GET READY"
	case types.StatePlaying:
		return "PLAYING"
	case types.StateEnd:
		return "GAME OVER"
	default:
		return ""
	}
}

func drawText(screen *ebiten.Image, s string, f font.Face, x, y int, clr color.Color) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(clr)
	text.DrawWithOptions(screen, s, f, op)
}

func drawTextCentered(screen *ebiten.Image, s string, f font.Face, cx, y int, clr color.Color) {
	bounds, _ := font.BoundString(f, s)
	width := (bounds.Max.X - bounds.Min.X).Ceil()
	drawText(screen, s, f, cx-width/2, y, clr)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}
