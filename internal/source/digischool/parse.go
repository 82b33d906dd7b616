package digischool

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Section страница уровня ("Réviser" на индексной странице раздела).
type Section struct {
	Text  string
	Href  string
	Level string
}

// SubjectPage карточка предмета на странице уровня.
type SubjectPage struct {
	Classroom string
	Category  string
	Subject   string
	Href      string
}

type Link struct {
	Type    string
	Title   string
	Href    string
	Premium bool
}

type Chapter struct {
	Title string
	Links []Link
}

const (
	linkTypeQuiz   = "Quiz"
	audioPrefix    = "Cours audio - "
	classroomNoise = "Cours et Exercices"
)

var levelRe = regexp.MustCompile(`primaire/([^/]+)`)

func absURL(base, href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return base + href
}

func text(s *goquery.Selection) string { return strings.TrimSpace(s.Text()) }

func parseSections(doc *goquery.Document, base string) []Section {
	var out []Section
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if text(a) != "Réviser" {
			return
		}
		href, _ := a.Attr("href")
		sec := Section{Text: text(a), Href: absURL(base, href)}
		if m := levelRe.FindStringSubmatch(href); m != nil {
			sec.Level = m[1]
		}
		out = append(out, sec)
	})
	return out
}

func parseSubjectPages(doc *goquery.Document, base string) []SubjectPage {
	classroom := text(doc.Find("h1.tw-headings-h3-36-regular").First())
	classroom = strings.TrimSpace(strings.ReplaceAll(classroom, classroomNoise, ""))
	category := text(doc.Find("li").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.HasClass("after:tw-inline-block")
	}).First())

	var out []SubjectPage
	doc.Find("a.tw-w-56").Each(func(_ int, card *goquery.Selection) {
		h3 := card.Find("h3").First()
		if h3.Length() == 0 {
			return
		}
		href, _ := card.Attr("href")
		out = append(out, SubjectPage{
			Classroom: classroom,
			Category:  category,
			Subject:   text(h3),
			Href:      absURL(base, href),
		})
	})
	return out
}

// parseChapters разбирает страницу предмета: блоки #chapitre-1..N по
// порядку; без #chapitre-1 старая разметка .tw-min-w-full.tw-pt-4.
func parseChapters(doc *goquery.Document, base string) []Chapter {
	var out []Chapter
	for i := 1; ; i++ {
		el := doc.Find(fmt.Sprintf("#chapitre-%d", i))
		if el.Length() == 0 {
			if i == 1 {
				doc.Find(".tw-min-w-full.tw-pt-4").Each(func(_ int, block *goquery.Selection) {
					out = append(out, Chapter{
						Title: text(block.Find("h2").First()),
						Links: parseLinks(block, base),
					})
				})
			}
			break
		}

		h2 := el.Find("h2").First()
		if h2.Length() == 0 {
			h2 = el.Find("section h2").First()
		}
		title := fmt.Sprintf("Chapitre %d", i)
		if h2.Length() > 0 {
			title = text(h2)
		}
		out = append(out, Chapter{Title: title, Links: parseLinks(el, base)})
	}
	return out
}

func parseLinks(scope *goquery.Selection, base string) []Link {
	var out []Link
	scope.Find("a").Each(func(_ int, a *goquery.Selection) {
		l := Link{Type: text(a.Find("span.tw-ml-1").First())}
		if p := a.Find("p.tw-body-s-16-bold").First(); p.Length() > 0 {
			l.Title = strings.ReplaceAll(text(p), audioPrefix, "")
		} else {
			l.Title = text(a)
		}
		href, _ := a.Attr("href")
		l.Href = absURL(base, href)
		l.Premium = a.Find(".tw-text-premium-dark").Length() > 0 || a.Find(`img[alt="premium"]`).Length() > 0
		out = append(out, l)
	})
	return out
}
