package core

// Keyboard switch matrix scanning: an 8-row by 16-column, diode-free matrix
// scanned a row at a time. Pressing a key connects its row and column
// lines; rows and columns do not necessarily correspond to physical rows
// and columns.

const (
	MatrixRows    = 8
	MatrixColumns = 16

	// RowsPerReport bounds how many rows are scanned per call to Scan,
	// trading report latency against how long a single scan call runs.
	RowsPerReport = 2

	// rowSettleUs is how long a row is held low before its columns are
	// sampled, letting voltages settle.
	rowSettleUs = 100
	// rowReleaseSettleUs is how long a row is held high after being
	// deactivated, before it's returned to the pulled-up input state.
	rowReleaseSettleUs = 20
)

// keyboardMatrix maps [row][column] to a HID boot-report scan code, 0x00
// meaning no switch is wired at that intersection. Recovered from the
// physical PowerBook keyboard wiring: rows on port C 0..7, columns on
// ports B (5..0), E (7,6) and F (0..7).
var keyboardMatrix = [MatrixRows][MatrixColumns]uint8{
	{0x00, ScEqual, Sc5, Sc4, 0x00, 0x00, 0x00, 0x00,
		0x00, ScLeftGUI, ScCapsLock, ScEscape, ScLeftShift, ScLeftAlt, ScLeftControl, Sc6},
	{ScU, ScEnter, ScSemicolon, ScL, ScRightArrow, ScD, ScUpArrow, 0x00,
		ScLeftArrow, ScLeftGUI, ScCapsLock, ScBackspace, ScLeftShift, ScLeftAlt, ScLeftControl, ScApostrophe},
	{0x00, ScO, ScLeftBracket, ScBackslash, 0x00, 0x00, 0x00, 0x00,
		0x00, ScLeftGUI, ScCapsLock, Sc3, ScLeftShift, ScLeftAlt, ScLeftControl, Sc9},
	{ScB, ScPeriod, ScComma, ScJ, ScF, 0x00, ScDownArrow, ScS,
		ScA, ScLeftGUI, ScCapsLock, ScH, ScLeftShift, ScLeftAlt, ScLeftControl, ScSlash},
	{ScEnter, 0x00, ScP, ScK, ScR, ScE, ScW, ScQ,
		ScTab, ScLeftGUI, ScCapsLock, ScI, ScLeftShift, ScLeftAlt, ScLeftControl, ScRightBracket},
	{0x00, Sc0, ScY, ScG, 0x00, 0x00, 0x00, 0x00,
		0x00, ScLeftGUI, ScCapsLock, Sc2, ScLeftShift, ScLeftAlt, ScLeftControl, Sc8},
	{0x00, ScMinus, ScT, ScGrave, 0x00, 0x00, 0x00, 0x00,
		0x00, ScLeftGUI, ScCapsLock, Sc1, ScLeftShift, ScLeftAlt, ScLeftControl, Sc7},
	{ScSpace, 0x00, ScM, ScN, ScV, ScC, ScX, ScZ,
		0x00, ScLeftGUI, ScCapsLock, 0x00, ScLeftShift, ScLeftAlt, ScLeftControl, 0x00},
}

// ghostFreeColumns marks columns wired through a diode (or otherwise immune
// to ghosting): GUI, Caps Lock, Shift, Alt, Control each appear in every
// row, so without this exemption any other two simultaneous presses would
// falsely ghost-suppress one of these modifiers.
var ghostFreeColumns = [MatrixColumns]bool{
	9: true, 10: true, 12: true, 13: true, 14: true,
}

// RowPins and ColumnPins map matrix row/column indices to GPIO pins. Set by
// platform bring-up code before the first call to Scan.
var (
	RowPins    [MatrixRows]GPIOPin
	ColumnPins [MatrixColumns]GPIOPin
)

// Matrix holds the scanner's working state: raw (pre-ghost-filter) press
// grid, per-row/per-column population counts, ghost flags, the cooked
// key-state table consumed by BuildKeyboardReport, and scan progress.
type Matrix struct {
	rawPressed  [MatrixRows][MatrixColumns]bool
	totalInRow  [MatrixRows]uint8
	totalInCol  [MatrixColumns]uint8
	rowGhost    [MatrixRows]bool
	colGhost    [MatrixColumns]bool
	KeyPressed  [256]bool
	currentRow  uint8
}

// InitPins configures all row pins as pulled-up inputs, idling high so that
// two simultaneously-pressed keys sharing a column never short two row
// pins together.
func InitPins() error {
	gpio := MustGPIO()
	for _, p := range RowPins {
		if err := gpio.ConfigureInputPullUp(p); err != nil {
			return err
		}
	}
	for _, p := range ColumnPins {
		if err := gpio.ConfigureInputPullUp(p); err != nil {
			return err
		}
	}
	return nil
}

// checkForGhosts recomputes rowGhost/colGhost from rawPressed and clears
// KeyPressed for every pressed key they now suppress. Called only
// on a raw-press transition, since a full matrix-wide scan on every column
// sample would make a row scan take too long.
func (m *Matrix) checkForGhosts() {
	for i := range m.rowGhost {
		m.rowGhost[i] = false
	}
	for i := range m.colGhost {
		m.colGhost[i] = false
	}

	for row := 0; row < MatrixRows; row++ {
		for col := 0; col < MatrixColumns; col++ {
			if ghostFreeColumns[col] {
				continue
			}
			// A corner key: pressed, and both its row and column already
			// have at least one other press. Three simultaneous presses
			// sharing two rows and a column (or two columns and a row)
			// can't be distinguished from a fourth, phantom press.
			if m.rawPressed[row][col] && m.totalInRow[row] >= 2 && m.totalInCol[col] >= 2 {
				for i := 0; i < MatrixRows; i++ {
					if m.rawPressed[i][col] {
						m.rowGhost[i] = true
					}
				}
				for j := 0; j < MatrixColumns; j++ {
					if ghostFreeColumns[j] {
						continue
					}
					if m.rawPressed[row][j] {
						m.colGhost[j] = true
					}
				}
				RecordTiming(EvtGhostDetected, uint8(row), GetLoopTick(), uint32(col), 0)
			}
		}
	}

	// Keys cooked as pressed before the corner was seen would otherwise stay
	// pressed while ghosted, so clear every pressed key in a ghosted row or
	// column (ghostFreeColumns excepted).
	for row := 0; row < MatrixRows; row++ {
		for col := 0; col < MatrixColumns; col++ {
			if ghostFreeColumns[col] || !m.rawPressed[row][col] {
				continue
			}
			if sc := keyboardMatrix[row][col]; sc != 0 && (m.rowGhost[row] || m.colGhost[col]) {
				m.KeyPressed[sc] = false
			}
		}
	}
}

// Scan scans RowsPerReport rows starting at the current row, updating
// KeyPressed. Call once per cooperative loop tick.
func (m *Matrix) Scan() {
	gpio := MustGPIO()

	for i := 0; i < RowsPerReport; i++ {
		row := m.currentRow

		gpio.ConfigureOutput(RowPins[row])
		gpio.SetPin(RowPins[row], false)
		gpio.DelayUs(rowSettleUs)

		for col := 0; col < MatrixColumns; col++ {
			scanCode := keyboardMatrix[row][col]
			pressed := !gpio.ReadPin(ColumnPins[col])

			changed := false
			if !m.rawPressed[row][col] && pressed {
				m.totalInRow[row]++
				m.totalInCol[col]++
				changed = true
			} else if m.rawPressed[row][col] && !pressed {
				m.totalInRow[row]--
				m.totalInCol[col]--
				changed = true
			}
			m.rawPressed[row][col] = pressed

			if changed {
				m.checkForGhosts()
			}

			if scanCode == 0x00 {
				continue
			}

			// Release immunity: a release always clears the cooked state,
			// regardless of ghost status. Only a press is subject to
			// ghost suppression.
			if !pressed {
				m.KeyPressed[scanCode] = false
			} else if !m.rowGhost[row] && !m.colGhost[col] {
				m.KeyPressed[scanCode] = true
			}
		}

		gpio.SetPin(RowPins[row], true)
		gpio.DelayUs(rowReleaseSettleUs)
		gpio.ConfigureInputPullUp(RowPins[row])

		m.currentRow++
		if m.currentRow >= MatrixRows {
			m.currentRow = 0
		}
	}
}
