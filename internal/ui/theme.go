package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// storefrontTheme: светлая палитра витрины с акцентом на кнопках покупки.
type storefrontTheme struct {
	base fyne.Theme
}

func newStorefrontTheme() fyne.Theme {
	return &storefrontTheme{base: theme.DefaultTheme()}
}

func (t *storefrontTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.NRGBA{R: 248, G: 249, B: 251, A: 255}
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 13, G: 110, B: 253, A: 255}
	case theme.ColorNameSuccess:
		return color.NRGBA{R: 25, G: 135, B: 84, A: 255}
	case theme.ColorNameError:
		return color.NRGBA{R: 220, G: 53, B: 69, A: 255}
	case theme.ColorNameForeground:
		return color.NRGBA{R: 33, G: 37, B: 41, A: 255}
	case theme.ColorNameInputBackground:
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	default:
		return t.base.Color(name, theme.VariantLight)
	}
}

func (t *storefrontTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *storefrontTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *storefrontTheme) Size(name fyne.ThemeSizeName) float32 {
	return t.base.Size(name)
}
