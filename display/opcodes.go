package display

// Serial command opcodes.
const (
	// text and string commands
	OpMoveCursor uint16 = 0xFFE9
	OpPutString  uint16 = 0x0018

	// graphics commands
	OpClearScreen     uint16 = 0xFFCD
	OpCircle          uint16 = 0xFFC3
	OpCircleFilled    uint16 = 0xFFC2
	OpRectangle       uint16 = 0xFFC5
	OpRectangleFilled uint16 = 0xFFC4
	OpPolygon         uint16 = 0x0013
	OpPolygonFilled   uint16 = 0x0014
	OpContrast        uint16 = 0xFF9C
	OpScreenMode      uint16 = 0xFF9E

	// image commands
	OpBlitComToDisplay uint16 = 0x0023

	// touch screen commands
	OpTouchDetectRegion uint16 = 0xFF39
	OpTouchSet          uint16 = 0xFF38
	OpTouchGet          uint16 = 0xFF37

	// system commands
	OpGetDisplayModel uint16 = 0x001A
	OpGetSPEVersion   uint16 = 0x001B
	OpGetPmmCVersion  uint16 = 0x001C
)
