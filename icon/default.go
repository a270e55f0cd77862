package icon

// defaultXPM is drawn for clients without any usable icon.
var defaultXPM = []string{
	`16 16 3 1`,
	`. c None`,
	`# c #000000`,
	`- c #c0c0c0`,
	`################`,
	`##............##`,
	`#.#----------#.#`,
	`#.-#--------#-.#`,
	`#.--#------#--.#`,
	`#.---#----#---.#`,
	`#.----#--#----.#`,
	`#.-----##-----.#`,
	`#.-----##-----.#`,
	`#.----#--#----.#`,
	`#.---#----#---.#`,
	`#.--#------#--.#`,
	`#.-#--------#-.#`,
	`#.#----------#.#`,
	`##............##`,
	`################`,
}
