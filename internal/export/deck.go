// internal/export/deck.go
package export

import (
	"bytes"
	"html/template"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
)

var deckTemplate = template.Must(template.New("deck").Funcs(template.FuncMap{
	"trusted": func(s string) template.HTML { return template.HTML(s) },
}).Parse(deckHTML))

// RenderDeck renders a self-contained HTML slide deck. Content slide bodies
// come from MarkdownToHTML, which escapes its input.
func RenderDeck(d *Deck) ([]byte, error) {
	var buf bytes.Buffer
	if err := deckTemplate.Execute(&buf, d); err != nil {
		return nil, apperrors.NewExportError("render slide deck", err)
	}
	return buf.Bytes(), nil
}

const deckHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Meta.Title}}</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  body {
    font-family: system-ui, -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    background: #f0f0f0;
    color: #1a1a1a;
    overflow: hidden;
    height: 100vh;
  }
  #progress {
    position: fixed; top: 0; left: 0; height: 3px;
    background: #2563eb; transition: width 0.3s ease; z-index: 100;
  }
  .slide {
    display: none; width: 100%; height: 100vh;
    justify-content: center; align-items: center; padding: 60px;
  }
  .slide.active { display: flex; }
  .slide-inner { max-width: 960px; width: 100%; max-height: calc(100vh - 120px); overflow-y: auto; }
  .title-inner, .divider-inner { text-align: center; }
  .slide-title h1 { font-size: 2.8rem; font-weight: 700; line-height: 1.2; margin-bottom: 1rem; color: #111; }
  .slide-title .subtitle { font-size: 1.3rem; color: #6b7280; margin-bottom: 2rem; }
  .author { font-size: 0.9rem; color: #9ca3af; margin-top: 2rem; }
  .toc-list { list-style: none; padding: 0; margin-top: 1.5rem; }
  .toc-list li { padding: 0.6rem 0; border-bottom: 1px solid #e5e7eb; font-size: 1.15rem; }
  .toc-list a { color: #2563eb; text-decoration: none; }
  .toc-list a:hover { text-decoration: underline; }
  .slide-divider, .slide-end { background: #fafafa; }
  .divider-accent { width: 80px; height: 4px; background: #2563eb; margin: 0 auto 2rem; border-radius: 2px; }
  .slide-divider h2 { font-size: 2.2rem; font-weight: 600; color: #111; }
  .slide-content { background: #fff; }
  .slide-content h2 {
    font-size: 1.6rem; font-weight: 600; color: #2563eb;
    margin-bottom: 1.2rem; padding-bottom: 0.5rem; border-bottom: 2px solid #e5e7eb;
  }
  .slide-body { font-size: 1.05rem; line-height: 1.7; }
  .slide-body h3 { font-size: 1.25rem; font-weight: 600; color: #374151; margin: 1.2rem 0 0.6rem; }
  .slide-body p { margin-bottom: 0.8rem; }
  .slide-body ul, .slide-body ol { margin: 0.6rem 0 0.6rem 1.5rem; }
  .slide-body li { margin-bottom: 0.3rem; }
  .slide-body strong { color: #111; }
  .slide-body em { color: #6b7280; }
  .slide-body code {
    background: #f3f4f6; padding: 2px 6px; border-radius: 4px;
    font-size: 0.92em; font-family: 'SF Mono', Menlo, Consolas, monospace;
  }
  .slide-body pre {
    background: #1e293b; color: #e2e8f0; padding: 1rem 1.2rem; border-radius: 8px;
    overflow-x: auto; margin: 0.8rem 0; font-size: 0.88rem; line-height: 1.5;
  }
  .slide-body pre code { background: none; padding: 0; color: inherit; font-size: inherit; }
  .slide-body table { width: 100%; border-collapse: collapse; margin: 0.8rem 0; font-size: 0.95rem; }
  .slide-body th, .slide-body td { border: 1px solid #d1d5db; padding: 8px 12px; text-align: left; }
  .slide-body th { background: #f9fafb; font-weight: 600; }
  .slide-body hr { border: none; border-top: 1px solid #e5e7eb; margin: 1.2rem 0; }
  .slide-end h2 { font-size: 2rem; font-weight: 600; color: #111; margin-bottom: 1rem; }
  .stats { font-size: 1.1rem; color: #6b7280; }
  #counter {
    position: fixed; bottom: 20px; right: 30px; font-size: 0.85rem;
    color: #9ca3af; z-index: 100; user-select: none;
  }
  #nav-hint {
    position: fixed; bottom: 20px; left: 30px; font-size: 0.85rem;
    color: #d1d5db; z-index: 100; transition: opacity 1s ease; user-select: none;
  }
  @media print {
    body { overflow: visible; background: #fff; }
    .slide { display: block !important; page-break-after: always; height: auto; min-height: 100vh; }
    #progress, #counter, #nav-hint { display: none; }
  }
</style>
</head>
<body>

<div id="progress"></div>
{{range $i, $s := .Slides}}
{{- if eq $s.Kind "title"}}
<div class="slide slide-title" data-index="{{$i}}">
  <div class="slide-inner title-inner">
    <h1>{{$s.Heading}}</h1>
    {{- if $s.Body}}
    <p class="subtitle">{{$s.Body}}</p>
    {{- end}}
    {{- if $.Meta.Author}}
    <p class="author">Developed and designed by {{$.Meta.Author}}</p>
    {{- end}}
  </div>
</div>
{{- else if eq $s.Kind "toc"}}
<div class="slide slide-toc" data-index="{{$i}}">
  <div class="slide-inner">
    <h2>{{$s.Heading}}</h2>
    <ol class="toc-list">
    {{- range $s.TOC}}
      <li><a href="#{{.Anchor}}" data-goto="{{.Name}}">{{.Number}}. {{.Name}}</a></li>
    {{- end}}
    </ol>
  </div>
</div>
{{- else if eq $s.Kind "divider"}}
<div class="slide slide-divider" id="{{$s.Anchor}}" data-index="{{$i}}" data-section="{{$s.Section}}">
  <div class="slide-inner divider-inner">
    <div class="divider-accent"></div>
    <h2>{{$s.Heading}}</h2>
  </div>
</div>
{{- else if eq $s.Kind "content"}}
<div class="slide slide-content" data-index="{{$i}}" data-section="{{$s.Section}}">
  <div class="slide-inner">
    <h2>{{$s.Heading}}</h2>
    <div class="slide-body">{{trusted $s.Body}}</div>
  </div>
</div>
{{- else if eq $s.Kind "end"}}
<div class="slide slide-end" data-index="{{$i}}">
  <div class="slide-inner divider-inner">
    <h2>{{$s.Heading}}</h2>
    <p class="stats">{{$s.Body}}</p>
    {{- if $.Meta.Author}}
    <p class="author">Developed and designed by {{$.Meta.Author}}</p>
    {{- end}}
  </div>
</div>
{{- end}}
{{- end}}

<div id="counter">1 / {{len .Slides}}</div>
<div id="nav-hint">&larr; &rarr;  Arrow keys to navigate</div>

<script>
(function() {
  var current = 0;
  var slides = document.querySelectorAll('.slide');
  var total = slides.length;
  var counter = document.getElementById('counter');
  var progress = document.getElementById('progress');
  var navHint = document.getElementById('nav-hint');

  function show(index) {
    if (index < 0 || index >= total) return;
    slides[current].classList.remove('active');
    current = index;
    slides[current].classList.add('active');
    counter.textContent = (current + 1) + ' / ' + total;
    progress.style.width = ((current + 1) / total * 100) + '%';
  }

  slides[0].classList.add('active');
  progress.style.width = (1 / total * 100) + '%';

  setTimeout(function() { navHint.style.opacity = '0'; }, 4000);

  document.addEventListener('keydown', function(e) {
    switch (e.key) {
      case 'ArrowRight':
      case ' ':
      case 'Enter':
        e.preventDefault(); show(current + 1); break;
      case 'ArrowLeft':
        e.preventDefault(); show(current - 1); break;
      case 'Home':
        e.preventDefault(); show(0); break;
      case 'End':
        e.preventDefault(); show(total - 1); break;
    }
  });

  window.goToSection = function(name) {
    for (var i = 0; i < total; i++) {
      if (slides[i].dataset.section === name && slides[i].classList.contains('slide-divider')) {
        show(i);
        return;
      }
    }
  };

  document.addEventListener('click', function(e) {
    var link = e.target.closest ? e.target.closest('a[data-goto]') : null;
    if (link) {
      e.preventDefault();
      window.goToSection(link.getAttribute('data-goto'));
      return;
    }
    if (e.target.tagName === 'A' || e.target.tagName === 'BUTTON') return;
    var rect = document.body.getBoundingClientRect();
    if (e.clientX > rect.width / 2) {
      show(current + 1);
    } else {
      show(current - 1);
    }
  });
})();
</script>

</body>
</html>
`
